package irc

import (
	"fmt"

	"github.com/hupe1980/ircmesh/serialize"
)

// defaultPatterns is the rfc2812 outbound command set. Order matters within
// a command: ties in spec scoring keep the earliest registration, so fuller
// overloads come first.
var defaultPatterns = []struct {
	command  string
	template string
}{
	{"PASS", "PASS {password}"},
	{"NICK", "NICK {nick}"},
	{"USER", "USER {user} {mode} * :{realname}"},
	{"USER", "USER {user} 0 * :{realname}"},
	{"OPER", "OPER {user} {password}"},
	{"USERMODE", "MODE {nick} {modes}"},
	{"USERMODE", "MODE {nick}"},
	{"USERMODE", "MODE"},
	{"SERVICE", "SERVICE {nick} * {distribution} {type} 0 :{info}"},
	{"QUIT", "QUIT :{message}"},
	{"QUIT", "QUIT"},
	{"SQUIT", "SQUIT {server} :{message}"},
	{"SQUIT", "SQUIT {server}"},
	{"JOIN", "JOIN {channel:comma} {key:comma}"},
	{"JOIN", "JOIN {channel:comma}"},
	{"PART", "PART {channel:comma} :{message}"},
	{"PART", "PART {channel:comma}"},
	{"CHANNELMODE", "MODE {channel} {params:space}"},
	{"TOPIC", "TOPIC {channel} :{message}"},
	{"TOPIC", "TOPIC {channel}"},
	{"NAMES", "NAMES {channel:comma} {target}"},
	{"NAMES", "NAMES {channel:comma}"},
	{"NAMES", "NAMES"},
	{"LIST", "LIST {channel:comma} {target}"},
	{"LIST", "LIST {channel:comma}"},
	{"LIST", "LIST"},
	{"INVITE", "INVITE {nick} {channel}"},
	{"KICK", "KICK {channel:comma} {nick:comma} :{message}"},
	{"KICK", "KICK {channel:comma} {nick:comma}"},
	{"PRIVMSG", "PRIVMSG {target} :{message}"},
	{"NOTICE", "NOTICE {target} :{message}"},
	{"MOTD", "MOTD {target}"},
	{"MOTD", "MOTD"},
	{"LUSERS", "LUSERS {mask} {target}"},
	{"LUSERS", "LUSERS {mask}"},
	{"LUSERS", "LUSERS"},
	{"VERSION", "VERSION {target}"},
	{"VERSION", "VERSION"},
	{"STATS", "STATS {query} {target}"},
	{"STATS", "STATS {query}"},
	{"STATS", "STATS"},
	{"LINKS", "LINKS {remote} {mask}"},
	{"LINKS", "LINKS {mask}"},
	{"LINKS", "LINKS"},
	{"TIME", "TIME {target}"},
	{"TIME", "TIME"},
	{"CONNECT", "CONNECT {target} {port} {remote}"},
	{"CONNECT", "CONNECT {target} {port}"},
	{"TRACE", "TRACE {target}"},
	{"TRACE", "TRACE"},
	{"ADMIN", "ADMIN {target}"},
	{"ADMIN", "ADMIN"},
	{"INFO", "INFO {target}"},
	{"INFO", "INFO"},
	{"SERVLIST", "SERVLIST {mask} {type}"},
	{"SERVLIST", "SERVLIST {mask}"},
	{"SERVLIST", "SERVLIST"},
	{"SQUERY", "SQUERY {target} :{message}"},
	{"WHO", "WHO {mask} {o:bool}"},
	{"WHO", "WHO {mask}"},
	{"WHO", "WHO"},
	{"WHOIS", "WHOIS {target} {mask:comma}"},
	{"WHOIS", "WHOIS {mask:comma}"},
	{"WHOWAS", "WHOWAS {nick:comma} {count} {target}"},
	{"WHOWAS", "WHOWAS {nick:comma} {count}"},
	{"WHOWAS", "WHOWAS {nick:comma}"},
	{"KILL", "KILL {nick} :{message}"},
	{"PING", "PING {message:nospace} {target}"},
	{"PING", "PING {message:nospace}"},
	{"PONG", "PONG :{message}"},
	{"PONG", "PONG"},
	{"AWAY", "AWAY :{message}"},
	{"AWAY", "AWAY"},
	{"REHASH", "REHASH"},
	{"DIE", "DIE"},
	{"RESTART", "RESTART"},
	{"SUMMON", "SUMMON {nick} {target} {channel}"},
	{"SUMMON", "SUMMON {nick} {target}"},
	{"SUMMON", "SUMMON {nick}"},
	{"USERS", "USERS {target}"},
	{"USERS", "USERS"},
	{"WALLOPS", "WALLOPS :{message}"},
	{"USERHOST", "USERHOST {nick:space}"},
	{"ISON", "ISON {nick:space}"},
}

// RegisterDefaults registers the rfc2812 command templates on a serializer.
// Applications that only speak a custom protocol can skip this and register
// their own vocabulary instead.
func RegisterDefaults(s *serialize.Serializer) error {
	for _, p := range defaultPatterns {
		if _, err := s.Register(p.command, p.template); err != nil {
			return fmt.Errorf("register %s pattern %q: %w", p.command, p.template, err)
		}
	}
	return nil
}
