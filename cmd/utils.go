package cmd

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"course-rag/internal/chat"
	"course-rag/internal/documents"
	"course-rag/internal/llm"
	"course-rag/internal/rag"
	"course-rag/internal/vectorstore"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// Config covers both the server and the ingestion CLI; unused fields just
// keep their defaults.
type Config struct {
	OpenAIAPIKey     string `env:"OPENAI_API_KEY,notEmpty,required"`
	GenerationModel  string `env:"GENERATION_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	DatabasePath     string `env:"DATABASE_PATH" envDefault:"./data/courses.db"`
	DocsPath         string `env:"DOCS_PATH" envDefault:"./docs"`
	FrontendDir      string `env:"FRONTEND_DIR" envDefault:"./frontend"`
	ChunkSize        int    `env:"CHUNK_SIZE" envDefault:"800"`
	ChunkOverlap     int    `env:"CHUNK_OVERLAP" envDefault:"100"`
	MaxResults       int    `env:"MAX_RESULTS" envDefault:"5"`
	MaxHistory       int    `env:"MAX_HISTORY" envDefault:"2"`
	EmbedConcurrency int    `env:"EMBED_CONCURRENCY" envDefault:"4"`
	APIPort          string `env:"API_PORT" envDefault:"8000"`
}

// NewRagSystem wires the full pipeline from config: document processor,
// vector store, OpenAI generator and embedder, and session manager.
func NewRagSystem(cfg Config, db *gorm.DB) (*rag.System, error) {
	embedder, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	processor := documents.NewProcessor(cfg.ChunkSize, cfg.ChunkOverlap)
	store := vectorstore.NewStore(db, embedder, cfg.MaxResults, cfg.EmbedConcurrency)
	generator := llm.NewGenerator(cfg.OpenAIAPIKey, cfg.GenerationModel)
	sessions := chat.NewSessionManager(cfg.MaxHistory)

	return rag.NewSystem(processor, store, generator, sessions), nil
}
