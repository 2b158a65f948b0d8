package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/autosave/internal/config"
	"github.com/debemdeboas/autosave/internal/db"
	"github.com/debemdeboas/autosave/internal/draft"
	"github.com/debemdeboas/autosave/internal/logger"
	"github.com/debemdeboas/autosave/internal/storage"
)

const (
	actionShow = "show"
	actionRm   = "rm"
)

// styles renders against out, so piped output stays plain.
type styles struct {
	label lipgloss.Style
	value lipgloss.Style
	state lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		label: r.NewStyle().Foreground(lipgloss.Color("63")).Bold(true).Width(9),
		value: r.NewStyle().Foreground(lipgloss.Color("212")),
		state: r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	key := flag.String("key", "", "Storage key, e.g. page:home or post:42:pt")
	action := flag.String("action", actionShow, "show prints the stored autosave, rm deletes it")
	flag.Parse()

	log := logger.New("warn", logger.FormatConsole)

	if *key == "" {
		log.Fatal().Msg("-key is required")
	}
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatal().Err(err).Msg(config.ErrLoadConfig)
	}
	cfg := config.AppConfig
	storage.SetLogger(log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var shared db.DB
	if cfg.Storage.Backend == config.BackendSQLite && cfg.Storage.SQLitePath == "" {
		database := db.NewSQLite(cfg.Content.DatabasePath)
		if err := database.InitDB(); err != nil {
			log.Fatal().Msgf(config.ErrInitializeDatabaseFmt, err)
		}
		defer database.Close()
		shared = database
	}

	store, err := storage.Open(ctx, cfg.Storage, shared)
	if err != nil {
		log.Fatal().Msgf(config.ErrOpenStorageFmt, err)
	}
	defer store.Close()

	if err := run(ctx, os.Stdout, store, *key, *action); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, store draft.Store, key, action string) error {
	switch action {
	case actionShow:
		return show(ctx, out, store, key)
	case actionRm:
		if err := store.Delete(ctx, key); err != nil {
			return err
		}
		st := newStyles(out)
		fmt.Fprintln(out, st.label.Render("removed")+st.value.Render(key))
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func show(ctx context.Context, out io.Writer, store draft.Store, key string) error {
	data, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no autosave stored under %s", key)
	}
	if err != nil {
		return err
	}

	env, at, err := draft.DecodeEnvelope(data)
	if err != nil {
		return err
	}

	var state bytes.Buffer
	if err := json.Indent(&state, []byte(env.StateJSON), "", "  "); err != nil {
		state.Reset()
		state.WriteString(env.StateJSON)
	}

	st := newStyles(out)
	fmt.Fprintln(out, st.label.Render("key:")+st.value.Render(key))
	fmt.Fprintln(out, st.label.Render("saved:")+st.value.Render(at.Format(time.RFC3339)))
	fmt.Fprintln(out, st.label.Render("version:")+st.value.Render(fmt.Sprint(env.Version)))
	fmt.Fprintln(out, st.state.Render(state.String()))
	return nil
}
