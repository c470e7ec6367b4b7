// Command valier runs the Discord event bot and inspects its state.
//
// `valier run` starts the bot in the foreground. The remaining commands read
// the local database or query the running daemon's status API:
//
//	valier status              daemon and database health
//	valier sessions [--all]    monitored rooms, or the full session history
//	valier kicks               recorded /kick actions
//	valier register            publish slash commands to Discord
//	valier test-notify         send an ntfy test notification
//	valier config init|show|validate
package main
