package logger

import (
	"log"
	"os"
)

var Log *log.Logger

// Init opens the audit log file. Full causal detail goes here; the terminal
// only ever carries concise status lines.
func Init(logFilePath string) error {
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}

	Log = log.New(file, "", log.LstdFlags)
	Log.Println("Audit log initialized.")
	return nil
}

// Printf writes to the audit log if it has been initialized. Packages on the
// hot path use this so they stay usable in tests without a log file.
func Printf(format string, args ...any) {
	if Log != nil {
		Log.Printf(format, args...)
	}
}
