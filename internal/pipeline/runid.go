package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const maxStemLen = 40

// RunIDGenerator hands out run identifiers of the form
// <image-stem>-<UTC timestamp>-<sequence>-<random>. The sequence alone keeps
// IDs from one generator distinct; the random suffix separates processes.
type RunIDGenerator struct {
	seq atomic.Uint64
	now func() time.Time
}

func NewRunIDGenerator() *RunIDGenerator {
	return &RunIDGenerator{now: time.Now}
}

func (g *RunIDGenerator) Next(imageName string) string {
	n := g.seq.Add(1)
	return fmt.Sprintf("%s-%s-%d-%s",
		stem(imageName),
		g.now().UTC().Format("20060102T150405.000Z"),
		n,
		uuid.NewString()[:8],
	)
}

// stem reduces an image name to a filesystem-safe prefix.
func stem(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxStemLen {
			break
		}
	}

	s := strings.Trim(b.String(), "_")
	if s == "" || s == "." {
		return "image"
	}
	return s
}
