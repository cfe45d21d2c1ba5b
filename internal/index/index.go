package index

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"gapaudit/internal/embedding"
)

// Index is a vector index over the chunks of one policy document, backed by
// SQLite. ANN search uses sqlite-vec when the extension is available and
// falls back to brute-force cosine over the stored embeddings otherwise.
type Index struct {
	mu      sync.RWMutex
	db      *sql.DB
	engine  embedding.Engine
	source  string
	vecExt  bool
}

// Scored is a retrieved chunk with its similarity to the query.
type Scored struct {
	Chunk
	Similarity float64
}

// Open creates an index stored at path (":memory:" for ephemeral use).
func Open(path, source string, engine embedding.Engine) (*Index, error) {
	if engine == nil {
		return nil, fmt.Errorf("index requires an embedding engine")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	idx := &Index{db: db, engine: engine, source: source}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (x *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL
	);`
	if _, err := x.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}

	// Probe for sqlite-vec by creating the ANN table; absence is not fatal.
	vecTable := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(embedding float[%d], chunk_id INTEGER)",
		x.engine.Dimensions(),
	)
	if _, err := x.db.Exec(vecTable); err == nil {
		x.vecExt = true
	}
	return nil
}

// Source returns the document this index covers.
func (x *Index) Source() string { return x.source }

// Close releases the underlying database.
func (x *Index) Close() error { return x.db.Close() }

// Add embeds and stores the given chunks.
func (x *Index) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := x.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i, c := range chunks {
		blob := encodeFloat32Blob(vecs[i])
		res, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (source, line_start, line_end, content, embedding) VALUES (?, ?, ?, ?, ?)",
			c.Source, c.LineStart, c.LineEnd, c.Content, blob,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
		if x.vecExt {
			id, _ := res.LastInsertId()
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO vec_chunks (embedding, chunk_id) VALUES (?, ?)", blob, id,
			); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert vector: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Count returns the number of stored chunks.
func (x *Index) Count() (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var n int
	err := x.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// Search returns the topK chunks most similar to the query.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]Scored, error) {
	if topK <= 0 {
		topK = 10
	}
	qvec, err := x.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.vecExt {
		results, err := x.searchVec(ctx, qvec, topK)
		if err == nil {
			return results, nil
		}
		// Fall through to brute force on vec failure.
	}
	return x.searchBruteForce(ctx, qvec, topK)
}

// searchVec performs ANN search using sqlite-vec.
func (x *Index) searchVec(ctx context.Context, qvec []float32, topK int) ([]Scored, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT c.source, c.line_start, c.line_end, c.content,
			vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		ORDER BY distance ASC
		LIMIT ?`,
		encodeFloat32Blob(qvec), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("vec search failed: %w", err)
	}
	defer rows.Close()

	var results []Scored
	for rows.Next() {
		var s Scored
		var distance float64
		if err := rows.Scan(&s.Source, &s.LineStart, &s.LineEnd, &s.Content, &distance); err != nil {
			continue
		}
		s.Similarity = 1.0 - distance
		results = append(results, s)
	}
	return results, rows.Err()
}

// searchBruteForce scans every stored embedding and ranks by cosine similarity.
func (x *Index) searchBruteForce(ctx context.Context, qvec []float32, topK int) ([]Scored, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT source, line_start, line_end, content, embedding FROM chunks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Scored
	for rows.Next() {
		var s Scored
		var blob []byte
		if err := rows.Scan(&s.Source, &s.LineStart, &s.LineEnd, &s.Content, &blob); err != nil {
			continue
		}
		s.Similarity = cosineSimilarity(qvec, decodeFloat32Blob(blob))
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Partial sort: topK is small.
	for i := 0; i < len(results) && i < topK; i++ {
		best := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Similarity > results[best].Similarity {
				best = j
			}
		}
		results[i], results[best] = results[best], results[i]
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchKeyword is the retrieval of last resort: substring matching over
// chunk text for each whitespace token of the query, ranked by tokens hit.
func (x *Index) SearchKeyword(ctx context.Context, query string, topK int) ([]Scored, error) {
	if topK <= 0 {
		topK = 10
	}
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	rows, err := x.db.QueryContext(ctx,
		"SELECT source, line_start, line_end, content FROM chunks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Scored
	for rows.Next() {
		var s Scored
		if err := rows.Scan(&s.Source, &s.LineStart, &s.LineEnd, &s.Content); err != nil {
			continue
		}
		lower := strings.ToLower(s.Content)
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		s.Similarity = float64(hits) / float64(len(tokens))
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func encodeFloat32Blob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		// Should never happen with bytes.Buffer
		return nil
	}
	return buf.Bytes()
}

func decodeFloat32Blob(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec)
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
