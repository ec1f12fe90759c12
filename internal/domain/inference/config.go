package inference

// Config holds runtime knobs for the model server.
type Config struct {
	EmbeddingModel    string
	Dimension         int
	GenerationBackend string
	MaxTokens         int
	Temperature       float32
	Stop              []string
}

const (
	defaultMaxTokens   = 128
	defaultTemperature = 0.2
)

// DefaultStop delimits the synthetic dialogue turn in the chat prompt.
var DefaultStop = []string{"User:", "You:"}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = defaultTemperature
	}
	if len(c.Stop) == 0 {
		c.Stop = DefaultStop
	}
	return c
}
