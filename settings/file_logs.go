package settings

import (
	"path"

	zlog "github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ChLogAudit carries one line per duplicate-suppression decision, routed
// through a channel so the hot path (Controller.Add/Contains) never blocks
// on file IO.
var ChLogAudit chan []byte

// ChLogRestapiErr carries restapi request-handling errors worth keeping
// around for later triage, independent of the structured stderr log.
var ChLogRestapiErr chan []byte

// start a new rotating logger that routes through a channel for performance
func makeFileLogger(filename string) chan []byte {
	// lumberjack lets us rotate log files automatically
	log := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28,    //days
		Compress:   true,
	}
	ch := make(chan []byte, 256)
	go func() {
		var err error
		for line := range ch {
			if len(line) == 0 {
				continue
			}
			// ensure a newline in logged message
			combined := append(line, []byte("\n")...)
			_, err = log.Write(combined)
			if err != nil {
				zlog.Warn().Int("bytes", len(combined)).Str("file", filename).Msg("could not write log line to file")
			}
		}
	}()
	return ch
}

// create all required loggers
func createFileLoggers(s *DPSettings) {
	ChLogAudit = makeFileLogger(s.AuditLogPath)
	ChLogRestapiErr = makeFileLogger(path.Join(s.LogPath, "restapi.err.log"))
}
