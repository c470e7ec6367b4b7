// Package guildinfo renders the /server summary: guild name, member count,
// and who is online right now.
package guildinfo
