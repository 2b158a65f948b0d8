package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/autosave/internal/config"
	"github.com/debemdeboas/autosave/internal/db"
	"github.com/debemdeboas/autosave/internal/model"
	"github.com/debemdeboas/autosave/internal/repository"
)

// main imports a directory of .md files as post documents.
func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if *path == "" {
		log.Fatal("--path is required")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("%s: %v", config.ErrLoadConfig, err)
	}

	database := db.NewSQLite(config.AppConfig.Content.DatabasePath)
	if err := database.InitDB(); err != nil {
		log.Fatalf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	repo := repository.NewDBRepository[model.Post](database, model.KindPost)

	files, err := os.ReadDir(*path)
	if err != nil {
		log.Fatalf("Error reading directory %s: %v", *path, err)
	}

	ctx := context.Background()
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}
		id, err := importFile(ctx, repo, filepath.Join(*path, file.Name()))
		if err != nil {
			log.Printf("Error processing file %s: %v", file.Name(), err)
			continue
		}
		log.Printf("Imported %s as post %s", file.Name(), id)
	}
}

// importFile stores one markdown file. The file name (without extension)
// becomes the post id, so re-running the import updates in place.
func importFile(ctx context.Context, repo *repository.DBRepository[model.Post], filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	id := strings.TrimSuffix(filepath.Base(filePath), ".md")
	post := model.Post{Title: id, Markdown: string(content)}
	post.ApplyFrontMatter()

	return id, repo.Insert(ctx, id, post)
}
