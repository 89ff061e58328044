// Package dedup provides batch-scoped near-duplicate detection with
// three methods: exact content hashing, simhash bit signatures, and
// Jaccard similarity over character shingles. Duplicate state lives
// only within one sub-batch; there is no cross-batch memory.
package dedup

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/poeticinspiired/llm-data-pipeline/internal/core/domain"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.BatchStage = (*Processor)(nil)

// Method selects the deduplication algorithm.
type Method string

const (
	// MethodExact marks records with identical text via content hash.
	MethodExact Method = "exact"

	// MethodSimHash compares 64-bit k-gram signatures by Hamming
	// similarity.
	MethodSimHash Method = "simhash"

	// MethodMinHash compares full shingle sets by exact Jaccard
	// similarity. The name is historical: no MinHash sketches are
	// computed.
	MethodMinHash Method = "minhash"
)

// Hash names accepted for the exact method.
const (
	HashMD5    = "md5"
	HashSHA1   = "sha1"
	HashSHA256 = "sha256"
)

// Defaults for the deduplicator.
const (
	DefaultSimilarityThreshold = 0.9
	DefaultNgramSize           = 3
)

// Processor eliminates duplicates within a batch. The first occurrence
// of a duplicate group is the keeper; later members are annotated with
// the keeper's ID.
type Processor struct {
	method       Method
	threshold    float64
	hashFunction string
	ngramSize    int
	keepFirst    bool
}

// Option configures the deduplicator.
type Option func(*Processor)

// WithMethod selects the deduplication algorithm.
func WithMethod(m Method) Option {
	return func(p *Processor) { p.method = m }
}

// WithSimilarityThreshold sets the similarity at or above which an
// approximate method marks a record as a duplicate.
func WithSimilarityThreshold(t float64) Option {
	return func(p *Processor) { p.threshold = t }
}

// WithHashFunction selects the content hash for the exact method.
func WithHashFunction(name string) Option {
	return func(p *Processor) { p.hashFunction = name }
}

// WithNgramSize sets the character k-gram width for the approximate
// methods.
func WithNgramSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.ngramSize = n
		}
	}
}

// WithKeepFirst controls the output: true (the default) returns only
// non-duplicates, false returns the full batch annotated.
func WithKeepFirst(keep bool) Option {
	return func(p *Processor) { p.keepFirst = keep }
}

// New creates a deduplicator. Unknown method or hash names are rejected
// here, before any document is touched.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		method:       MethodExact,
		threshold:    DefaultSimilarityThreshold,
		hashFunction: HashMD5,
		ngramSize:    DefaultNgramSize,
		keepFirst:    true,
	}
	for _, opt := range opts {
		opt(p)
	}

	switch p.method {
	case MethodExact, MethodSimHash, MethodMinHash:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, p.method)
	}
	switch p.hashFunction {
	case HashMD5, HashSHA1, HashSHA256:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedHash, p.hashFunction)
	}
	return p, nil
}

// Name returns the stage name.
func (p *Processor) Name() string { return "deduplicator" }

// Phase returns the processing phase.
func (p *Processor) Phase() domain.Phase { return domain.PhaseDeduplication }

// ProcessBatch deduplicates the batch. Later records' decisions depend
// on earlier records accepted as unique, so the batch is walked in
// order.
func (p *Processor) ProcessBatch(_ context.Context, recs []*domain.Record) ([]*domain.Record, error) {
	for _, rec := range recs {
		if rec == nil {
			return nil, domain.ErrNilRecord
		}
	}

	switch p.method {
	case MethodExact:
		return p.exact(recs), nil
	case MethodSimHash:
		return p.simhash(recs), nil
	default:
		return p.jaccard(recs), nil
	}
}

// exact marks records whose text hashes identically. O(n) via a
// hash-to-keeper map.
func (p *Processor) exact(recs []*domain.Record) []*domain.Record {
	keepers := make(map[string]string, len(recs))
	unique := make([]*domain.Record, 0, len(recs))

	for _, rec := range recs {
		digest := p.digest(rec.Text)
		if keeperID, seen := keepers[digest]; seen {
			rec.ProcessingMeta[domain.MetaDuplicate] = true
			rec.ProcessingMeta[domain.MetaDuplicateOf] = keeperID
		} else {
			keepers[digest] = rec.ID
			rec.ProcessingMeta[domain.MetaDuplicate] = false
			unique = append(unique, rec)
		}
	}

	for _, rec := range recs {
		rec.AddStep("deduplication", map[string]any{
			"method":        string(MethodExact),
			"hash_function": p.hashFunction,
			"is_duplicate":  rec.Duplicate(),
		})
	}

	if p.keepFirst {
		return unique
	}
	return recs
}

// digest hashes text with the configured function.
func (p *Processor) digest(text string) string {
	var h hash.Hash
	switch p.hashFunction {
	case HashSHA1:
		h = sha1.New()
	case HashSHA256:
		h = sha256.New()
	default:
		h = md5.New()
	}
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// simhash compares each record's 64-bit signature against every unique
// accepted so far; the first unique at or above the threshold wins.
// O(n*u) with u uniques so far.
func (p *Processor) simhash(recs []*domain.Record) []*domain.Record {
	type accepted struct {
		id  string
		sig uint64
	}

	var uniques []accepted
	unique := make([]*domain.Record, 0, len(recs))

	for _, rec := range recs {
		sig := signature(rec.Text, p.ngramSize)

		isDuplicate := false
		for _, u := range uniques {
			sim := hammingSimilarity(sig, u.sig)
			if sim >= p.threshold {
				rec.ProcessingMeta[domain.MetaDuplicate] = true
				rec.ProcessingMeta[domain.MetaDuplicateOf] = u.id
				rec.ProcessingMeta[domain.MetaSimilarity] = sim
				isDuplicate = true
				break
			}
		}
		if !isDuplicate {
			uniques = append(uniques, accepted{id: rec.ID, sig: sig})
			rec.ProcessingMeta[domain.MetaDuplicate] = false
			unique = append(unique, rec)
		}
	}

	p.addApproxSteps(recs, MethodSimHash)
	if p.keepFirst {
		return unique
	}
	return recs
}

// jaccard compares full shingle sets with the same first-match-wins
// policy and complexity as simhash.
func (p *Processor) jaccard(recs []*domain.Record) []*domain.Record {
	type accepted struct {
		id       string
		shingles map[string]struct{}
	}

	var uniques []accepted
	unique := make([]*domain.Record, 0, len(recs))

	for _, rec := range recs {
		shingles := shingleSet(rec.Text, p.ngramSize)

		isDuplicate := false
		for _, u := range uniques {
			sim := jaccardSimilarity(shingles, u.shingles)
			if sim >= p.threshold {
				rec.ProcessingMeta[domain.MetaDuplicate] = true
				rec.ProcessingMeta[domain.MetaDuplicateOf] = u.id
				rec.ProcessingMeta[domain.MetaSimilarity] = sim
				isDuplicate = true
				break
			}
		}
		if !isDuplicate {
			uniques = append(uniques, accepted{id: rec.ID, shingles: shingles})
			rec.ProcessingMeta[domain.MetaDuplicate] = false
			unique = append(unique, rec)
		}
	}

	p.addApproxSteps(recs, MethodMinHash)
	if p.keepFirst {
		return unique
	}
	return recs
}

// addApproxSteps records the history entry for both approximate
// methods.
func (p *Processor) addApproxSteps(recs []*domain.Record, method Method) {
	for _, rec := range recs {
		similarity := 1.0
		if s, ok := rec.ProcessingMeta[domain.MetaSimilarity].(float64); ok {
			similarity = s
		}
		rec.AddStep("deduplication", map[string]any{
			"method":               string(method),
			"ngram_size":           p.ngramSize,
			"similarity_threshold": p.threshold,
			"is_duplicate":         rec.Duplicate(),
			"similarity":           similarity,
		})
	}
}
