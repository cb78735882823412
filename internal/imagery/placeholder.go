package imagery

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/creatorstation/editorial/internal/store"
)

const maxPlaceholderAttempts = 16

// Placeholder derives a stable placeholder image URL from candidate and
// seed. A URL already on the avoid-list is re-hashed with a counter.
func Placeholder(base, candidateID, seed string, avoid *store.AvoidList) string {
	base = strings.TrimRight(base, "/")
	var url string
	for i := 0; i < maxPlaceholderAttempts; i++ {
		key := candidateID + "|" + seed
		if i > 0 {
			key = fmt.Sprintf("%s|%d", key, i)
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(key))
		url = fmt.Sprintf("%s/%016x/1200/630", base, h.Sum64())
		if avoid == nil || !avoid.HasImage(url) {
			return url
		}
	}
	return url
}
