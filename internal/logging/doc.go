// Package logger provides leveled logging for kanuka-notes commands and the
// background convergence task.
//
// # Verbosity Levels
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details and errors
//
// Without flags, only WarnfAlways output is shown.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Registered device %s", alias)
//
// Commands create a logger in their PersistentPreRun and pass it to
// workflows, which hand it to the session coordinator. Tests set Out and Err
// to capture output.
package logger
