package xid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a random identifier tagged with prefix, e.g. "sess-3f2b...".
func New(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s-%s", prefix, id)
}
