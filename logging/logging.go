package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvVar holds the log level (debug, info, warn, error, fatal).
const EnvVar = "SHOWCASE_LOG"

// InitLogger installs the line handler on stderr with the level from SHOWCASE_LOG.
// Unknown levels fall back to ERROR.
func InitLogger() {
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevel(LevelFromEnv())
}

func LevelFromEnv() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(os.Getenv(EnvVar)))
	if err != nil {
		return log.ErrorLevel
	}
	return lvl
}

// Handler writes one line per entry: timestamp, level initial, message, sorted fields.
type Handler struct {
	mu sync.Mutex
	w  io.Writer
}

func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w}
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", e.Timestamp.Format(time.DateTime), strings.ToUpper(e.Level.String()), e.Message)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
