package irc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/ircmesh/event"
)

// ErrMalformedLine reports a line that does not fit the rfc2812 grammar or a
// command whose fields cannot be extracted. Callers should log it at debug
// level and skip the line; it is never fatal to the connection.
var ErrMalformedLine = errors.New("malformed line")

// splitLine parses the rfc2812 message grammar: an optional ":"-prefixed
// source, a command token, space separated middle parameters, and an
// optional trailing parameter introduced by " :" that may contain spaces.
func splitLine(line string) (prefix, command string, params []string, trailing string, err error) {
	rest := strings.TrimSpace(line)
	if rest == "" {
		return "", "", nil, "", fmt.Errorf("%w: empty", ErrMalformedLine)
	}

	if rest[0] == ':' {
		cut := strings.IndexByte(rest, ' ')
		if cut < 0 {
			return "", "", nil, "", fmt.Errorf("%w: prefix without command", ErrMalformedLine)
		}
		prefix = rest[1:cut]
		rest = strings.TrimLeft(rest[cut+1:], " ")
	}

	for rest != "" {
		if rest[0] == ':' {
			if command == "" {
				return "", "", nil, "", fmt.Errorf("%w: missing command", ErrMalformedLine)
			}
			trailing = rest[1:]
			break
		}

		token := rest
		if cut := strings.IndexByte(rest, ' '); cut >= 0 {
			token, rest = rest[:cut], strings.TrimLeft(rest[cut+1:], " ")
		} else {
			rest = ""
		}

		if command == "" {
			command = strings.ToUpper(token)
		} else {
			params = append(params, token)
		}
	}

	if command == "" {
		return "", "", nil, "", fmt.Errorf("%w: missing command", ErrMalformedLine)
	}
	return prefix, command, params, trailing, nil
}

// nickmask splits a "nick!user@host" prefix into the payload.
func nickmask(prefix string, payload event.Payload) error {
	nick, rest, ok := strings.Cut(prefix, "!")
	if !ok {
		return fmt.Errorf("%w: prefix %q is not a nickmask", ErrMalformedLine, prefix)
	}
	user, host, ok := strings.Cut(rest, "@")
	if !ok {
		return fmt.Errorf("%w: prefix %q is not a nickmask", ErrMalformedLine, prefix)
	}
	payload["nick"] = nick
	payload["user"] = user
	payload["host"] = host
	return nil
}

func isChannel(target string) bool {
	return target != "" && strings.ContainsRune("#&+!", rune(target[0]))
}

func isNumeric(command string) bool {
	if len(command) != 3 {
		return false
	}
	for _, r := range command {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func needParams(command string, params []string, n int) error {
	if len(params) < n {
		return fmt.Errorf("%w: %s needs %d params, got %d", ErrMalformedLine, command, n, len(params))
	}
	return nil
}

// Unpack extracts the event name and payload from one inbound line.
// Numeric replies dispatch under their symbolic name (001 -> RPL_WELCOME)
// with the reply target, remaining middle params and trailing message.
// MODE dispatches as USERMODE or CHANNELMODE depending on the target.
func Unpack(line string) (string, event.Payload, error) {
	prefix, command, params, trailing, err := splitLine(line)
	if err != nil {
		return "", nil, err
	}

	payload := event.Payload{}

	if isNumeric(command) {
		name := NumericName(command)
		payload["host"] = prefix
		payload["message"] = trailing
		if len(params) > 0 {
			payload["target"] = params[0]
			payload["params"] = params[1:]
		} else {
			payload["params"] = []string{}
		}
		return name, payload, nil
	}

	switch command {
	case "PING", "PONG":
		payload["message"] = trailing

	case "PRIVMSG", "NOTICE":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		if err := needParams(command, params, 1); err != nil {
			return "", nil, err
		}
		payload["target"] = params[0]
		payload["message"] = trailing

	case "JOIN":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		// Some servers send the channel as the trailing parameter.
		if len(params) > 0 {
			payload["channel"] = params[0]
		} else if trailing != "" {
			payload["channel"] = trailing
		} else {
			return "", nil, fmt.Errorf("%w: JOIN without channel", ErrMalformedLine)
		}

	case "PART":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		if err := needParams(command, params, 1); err != nil {
			return "", nil, err
		}
		payload["channel"] = params[0]
		payload["message"] = trailing

	case "QUIT":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		payload["message"] = trailing

	case "NICK":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		if len(params) > 0 {
			payload["new_nick"] = params[0]
		} else {
			payload["new_nick"] = trailing
		}

	case "TOPIC":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		if err := needParams(command, params, 1); err != nil {
			return "", nil, err
		}
		payload["channel"] = params[0]
		payload["message"] = trailing

	case "INVITE":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		if err := needParams(command, params, 1); err != nil {
			return "", nil, err
		}
		payload["target"] = params[0]
		if len(params) > 1 {
			payload["channel"] = params[1]
		} else {
			payload["channel"] = trailing
		}

	case "KICK":
		if err := nickmask(prefix, payload); err != nil {
			return "", nil, err
		}
		if err := needParams(command, params, 2); err != nil {
			return "", nil, err
		}
		payload["channel"] = params[0]
		payload["target"] = params[1]
		payload["message"] = trailing

	case "MODE":
		if err := needParams(command, params, 1); err != nil {
			return "", nil, err
		}
		if isChannel(params[0]) {
			command = "CHANNELMODE"
			payload["channel"] = params[0]
			payload["modes"] = strings.Join(params[1:], " ")
		} else {
			command = "USERMODE"
			payload["target"] = params[0]
			if len(params) > 1 {
				payload["modes"] = strings.Join(params[1:], " ")
			} else {
				payload["modes"] = trailing
			}
		}
		payload["host"] = prefix

	default:
		return "", nil, fmt.Errorf("%w: unknown command %q", ErrMalformedLine, command)
	}

	return command, payload, nil
}
