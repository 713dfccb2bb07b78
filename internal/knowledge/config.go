package knowledge

const (
	// MinConfidence drops packs whose blended confidence is below it.
	MinConfidence = 0.15

	// QueryCacheSize is the number of query embeddings kept in memory.
	QueryCacheSize = 256

	// EmbedBatchSize is the number of pack texts sent per embedding call.
	EmbedBatchSize = 32

	// EmbedWorkers bounds concurrent embedding calls during ingest.
	EmbedWorkers = 4
)

// depthLimits caps the number of packs returned per depth tier.
var depthLimits = map[string]int{
	"L0": 5,
	"L1": 10,
	"L2": 20,
	"L3": 40,
}

// PackLimit returns the pack cap for a depth tier; unknown tiers use L2.
func PackLimit(depth string) int {
	if n, ok := depthLimits[depth]; ok {
		return n
	}
	return depthLimits["L2"]
}

// Config tunes an Index. Zero fields take the package defaults.
type Config struct {
	MinConfidence  float64 `mapstructure:"min_confidence"`
	QueryCacheSize int     `mapstructure:"query_cache_size"`
	EmbedBatchSize int     `mapstructure:"embed_batch_size"`
	EmbedWorkers   int     `mapstructure:"embed_workers"`
}

// DefaultConfig returns the package defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence:  MinConfidence,
		QueryCacheSize: QueryCacheSize,
		EmbedBatchSize: EmbedBatchSize,
		EmbedWorkers:   EmbedWorkers,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinConfidence <= 0 {
		c.MinConfidence = d.MinConfidence
	}
	if c.QueryCacheSize <= 0 {
		c.QueryCacheSize = d.QueryCacheSize
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = d.EmbedBatchSize
	}
	if c.EmbedWorkers <= 0 {
		c.EmbedWorkers = d.EmbedWorkers
	}
	return c
}
