// Package main is the Insyte CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/cli"
	"github.com/HarshaParisha/insyte/internal/config"
	"github.com/HarshaParisha/insyte/internal/ingest"
	"github.com/HarshaParisha/insyte/internal/keyword"
	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/internal/search"
	"github.com/HarshaParisha/insyte/internal/server"
	"github.com/HarshaParisha/insyte/internal/storage"
	"github.com/HarshaParisha/insyte/internal/watcher"
	"github.com/HarshaParisha/insyte/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/insyte/config.yaml"
	defaultServerURL  = "http://localhost:8501"
)

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so that running from the project
// directory picks up the project's config. Returns the config and the path
// actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "projects":
		runProjects()
	case "upload":
		runUpload()
	case "search":
		runSearch()
	case "questions":
		runQuestions()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("insyte version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Imports) > 0 {
		importer := watcher.NewImporter(components.Storage, components.Ingest, logger)
		roots := make([]watcher.Root, len(cfg.Imports))
		for i, imp := range cfg.Imports {
			roots[i] = watcher.Root{
				Project:    imp.Project,
				Directory:  imp.Directory,
				Extensions: imp.Extensions,
			}
		}
		watchSvc = watcher.NewWatcher(roots, importer.Import, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start import watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Storage,
		components.Engine,
		components.Keyword,
		components.Ingest,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	if cfg.Storage.IndexPath != "" {
		if err := components.Engine.SaveIndex(); err != nil {
			logger.Warn("index save failed",
				zap.String("path", cfg.Storage.IndexPath),
				zap.Error(err))
		}
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runProjects() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: insyte projects <list|create|delete> [flags] [args]")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("projects", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	description := fs.String("description", "", "project description (create)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[3:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch sub {
	case "list":
		projects, err := listProjectsViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteProjects(os.Stdout, projects, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "create":
		if fs.NArg() < 1 {
			fmt.Println("Usage: insyte projects create [flags] <name>")
			os.Exit(1)
		}
		name := strings.Join(fs.Args(), " ")
		body, _ := json.Marshal(models.ProjectInput{Name: name, Description: *description})
		resp, err := http.Post(*serverURL+"/api/v1/projects", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Create failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var project models.Project
		if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created project %s (%s)\n", project.Name, project.ID)
	case "delete":
		if fs.NArg() < 1 {
			fmt.Println("Usage: insyte projects delete [flags] <id-or-name>")
			os.Exit(1)
		}
		projectID, err := resolveProjectID(*serverURL, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/projects/"+projectID, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Delete failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Deleted project %s\n", projectID)
	default:
		fmt.Printf("Unknown projects subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	project := fs.String("project", "", "target project id or name")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *project == "" || fs.NArg() < 1 {
		fmt.Println("Usage: insyte upload --project <id-or-name> <files...>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	projectID, err := resolveProjectID(*serverURL, *project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, path := range fs.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
			os.Exit(1)
		}
		if _, err := part.Write(content); err != nil {
			fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := mw.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
		os.Exit(1)
	}

	resp, err := http.Post(
		*serverURL+"/api/v1/projects/"+projectID+"/documents",
		mw.FormDataContentType(), &buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusUnprocessableEntity {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Upload failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var report models.UploadReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteUploadReport(os.Stdout, &report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if report.SuccessCount == 0 {
		os.Exit(1)
	}
}

// buildSearchQuery joins all positional args so multi-word queries work the
// same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	project := fs.String("project", "", "project id or name to search")
	limit := fs.Int("limit", 5, "number of results")
	minSimilarity := fs.Int("min-similarity", 25, "minimum similarity percentage (0-100)")
	mode := fs.String("mode", models.ModeSemantic, "search mode: semantic or keyword")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *project == "" || fs.NArg() < 1 {
		fmt.Println("Usage: insyte search --project <id-or-name> [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: insyte search --project <id-or-name> [flags] <query>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	projectID, err := resolveProjectID(*serverURL, *project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	request := &models.SearchRequest{
		Query:         queryStr,
		MaxResults:    *limit,
		MinSimilarity: *minSimilarity,
		Mode:          *mode,
	}
	body, _ := json.Marshal(request)
	resp, err := http.Post(
		*serverURL+"/api/v1/projects/"+projectID+"/search",
		"application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Search failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, &response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runQuestions() {
	fs := flag.NewFlagSet("questions", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	project := fs.String("project", "", "project id or name")
	limit := fs.Int("limit", 50, "maximum number of questions")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *project == "" {
		fmt.Println("Usage: insyte questions --project <id-or-name> [flags]")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	projectID, err := resolveProjectID(*serverURL, *project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/projects/%s/questions?limit=%d", *serverURL, projectID, *limit))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Questions failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Questions []*models.QAPair `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQuestions(os.Stdout, out.Questions, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		for _, key := range []string{"projects", "documents", "qa_pairs", "disk_usage_bytes"} {
			if v, ok := status[key]; ok {
				fmt.Printf("%-18s %v\n", key+":", v)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// listProjectsViaHTTP fetches the project listing from the server.
func listProjectsViaHTTP(serverURL string) ([]*models.Project, error) {
	resp, err := http.Get(serverURL + "/api/v1/projects")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Projects []*models.Project `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Projects, nil
}

// resolveProjectID accepts a project id or name and returns the id.
func resolveProjectID(serverURL, idOrName string) (string, error) {
	projects, err := listProjectsViaHTTP(serverURL)
	if err != nil {
		return "", err
	}
	for _, p := range projects {
		if p.ID == idOrName {
			return p.ID, nil
		}
	}
	for _, p := range projects {
		if p.Name == idOrName {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no project with id or name %q", idOrName)
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Engine  *search.Engine
	Keyword *keyword.Searcher
	Ingest  *ingest.Service
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine := search.NewEngine(&cfg.Embedding, cfg.Storage.IndexPath, logger)
	if err := engine.LoadEmbeddingModel(); err != nil {
		// The server can start without a model; semantic search will retry
		// loading on first use and keyword mode works regardless.
		logger.Warn("embedding model unavailable at startup", zap.Error(err))
	}
	if cfg.Storage.IndexPath != "" {
		// Restore the index saved on the last shutdown. A missing or stale
		// file is not fatal; the first search rebuilds from storage anyway.
		if err := engine.LoadIndex(); err != nil {
			logger.Warn("no saved index restored",
				zap.String("path", cfg.Storage.IndexPath),
				zap.Error(err))
		}
	}

	return &Components{
		Storage: store,
		Engine:  engine,
		Keyword: keyword.NewSearcher(),
		Ingest:  ingest.NewService(store, cfg.Search.MaxQAPairs, logger),
	}, nil
}

func printUsage() {
	fmt.Println(`insyte - project-scoped document search and question generation

Usage:
  insyte server [flags]                       Start the HTTP server
  insyte projects <list|create|delete>        Manage projects
  insyte upload --project <p> <files...>      Upload documents to a project
  insyte search --project <p> [flags] <query> Search a project's documents
  insyte questions --project <p> [flags]      Show generated questions
  insyte status [flags]                       Show service status
  insyte version                              Show version
  insyte help                                 Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/insyte/config.yaml)
  --debug            Enable debug logging

Common Flags:
  --server string    Server URL (default: http://localhost:8501)
  --output string    Output format: text or json (default: text)

Search Flags:
  --project string       Project id or name (required)
  --limit int            Number of results (default: 5)
  --min-similarity int   Minimum similarity percentage (default: 25)
  --mode string          Search mode: semantic or keyword (default: semantic)

Examples:
  insyte server
  insyte projects create "Research Papers"
  insyte upload --project "Research Papers" paper.pdf notes.docx
  insyte search --project "Research Papers" neural network training
  insyte search --project "Research Papers" --mode keyword gradient
  insyte questions --project "Research Papers"
  insyte status --output json`)
}
