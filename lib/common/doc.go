// Package common provides the pieces shared by the crusher packages and the
// command line tool.
//
//   - Logger: a custom implementation of dragonboat's logger.ILogger that
//     formats every line as "LEVEL | package | message". InitLoggers
//     installs it as the global factory and sets the level of the broker,
//     db, cache, channel and cli loggers.
//
//   - BrokerConfig: the startup parameters of a broker with a readable
//     String form for the CLI.
package common
