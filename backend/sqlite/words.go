package sqlite

import (
	"context"
	"hash/fnv"

	"github.com/arion-db/arion/arionerr"
)

// InternWord returns the __words table id for word, inserting it if
// absent. Ids live in a 48-bit namespace: a 32-bit
// hash of the word shifted left by 16 bits, with linear probing into the
// low 16 bits on collision.
func (a *Adapter) InternWord(ctx context.Context, word string) (int64, error) {
	h := fnv.New32a()
	h.Write([]byte(word))
	base := int64(h.Sum32()) << 16

	execr := a.execr()
	for probe := int64(0); probe < 1<<16; probe++ {
		id := base + probe

		rows, err := execr.QueryContext(ctx, `SELECT word FROM __words WHERE id = ?`, id)
		if err != nil {
			return 0, arionerr.New(arionerr.KindBackend, "InternWord", err)
		}
		var existing string
		found := rows.Next()
		if found {
			_ = rows.Scan(&existing)
		}
		rows.Close()

		if !found {
			if _, err := execr.ExecContext(ctx, `INSERT INTO __words (id, word) VALUES (?, ?)`, id, word); err != nil {
				return 0, arionerr.New(arionerr.KindBackend, "InternWord", err)
			}
			return id, nil
		}
		if existing == word {
			return id, nil
		}
		// collision on this slot with a different word; linear-probe the
		// next id in the same 16-bit namespace.
	}
	return 0, arionerr.New(arionerr.KindBackend, "InternWord", errProbeExhausted(word))
}

type errProbeExhausted string

func (e errProbeExhausted) Error() string {
	return "sqlite: word namespace exhausted for " + string(e)
}
