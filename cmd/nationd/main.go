package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/api"
	"github.com/M-LunaFarm/NationSystem/internal/auth"
	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/economy"
	"github.com/M-LunaFarm/NationSystem/internal/notify"
	"github.com/M-LunaFarm/NationSystem/internal/service"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/M-LunaFarm/NationSystem/internal/structure"
	"github.com/M-LunaFarm/NationSystem/internal/world"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

var version = "dev"

const defaultConfigPath = "/etc/nationd/config.yml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "nations":
		cmdNations(os.Args[2:])
	case "wars":
		cmdWars(os.Args[2:])
	case "user":
		cmdUser(os.Args[2:])
	case "version":
		fmt.Printf("nationd %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: nationd <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                               Start the nation server")
	fmt.Println("  nations                             Show all nations")
	fmt.Println("  wars                                Show matchmaking and war status")
	fmt.Println("  user add [--admin] <username>       Add an operator account (prompts for password)")
	fmt.Println("  user remove <username>              Remove an operator account")
	fmt.Println("  user list                           List operator accounts")
	fmt.Println("  version                             Show version")
	fmt.Println("  help                                Show this help")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Println("  --config <path>    Path to configuration file (default /etc/nationd/config.yml)")
	fmt.Println("  --url <url>        Base URL of the nationd server (default: derived from config)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  nationd serve --config /etc/nationd/config.yml")
	fmt.Println("  nationd nations")
	fmt.Println("  nationd user add --admin myuser")
}

// cmdServe starts the nation server
func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	// Determine config path
	cfgPath := *configPath
	if cfgPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			cfgPath = defaultConfigPath
		} else {
			log.Fatalf("No config file found at %s. Use --config to specify a config file.", defaultConfigPath)
		}
	}

	// Load configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("NationSystem %s starting...", version)

	// Initialize storage
	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()
	log.Printf("Database initialized at %s", cfg.Database.Path)

	// Start the world gateway; all world access funnels through it
	gateway := world.NewGateway()
	gateway.Start()
	log.Printf("World gateway started")

	// Start the embedded message bus
	notifier, err := notify.New(cfg.Notify.Port)
	if err != nil {
		log.Fatalf("Failed to start message bus: %v", err)
	}
	log.Printf("Message bus started")

	ledger := economy.NewLedger(gateway)
	structures := structure.NewProvider(cfg.Server.DataDir, cfg.Structures.Wall, cfg.Structures.Center)
	if !structures.HasWallTemplates() {
		log.Printf("Warning: wall templates missing under %s; wall construction will fail until they are installed", cfg.Server.DataDir)
	}

	// Wire the domain services
	events := service.NewEvents()
	invites := service.NewInvitationService(cfg.InviteTTL())
	nations := service.NewNationService(cfg, store, ledger, invites, notifier, events)
	territories := service.NewTerritoryService(cfg, store, gateway, structures, nations, events)
	buildings := service.NewBuildingService(cfg, store, gateway, structures, events)
	wars := service.NewWarService(cfg, store, nations, events)

	svc := &api.Services{
		Nations:     nations,
		Territories: territories,
		Buildings:   buildings,
		Wars:        wars,
		Bank:        service.NewBankService(cfg, store, ledger, buildings),
		Levels:      service.NewLevelService(cfg, store, nations, events),
		Presents:    service.NewPresentService(cfg, store, ledger, buildings),
		Storage:     service.NewStorageService(cfg, store, buildings),
		Shop:        service.NewShopService(cfg, store, ledger, buildings, notifier),
		Quests:      service.NewQuestService(cfg, store, nations),
		Events:      events,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the background scheduler
	scheduler := service.NewScheduler(territories, buildings, wars)
	scheduler.Start(ctx)

	// Create auth service
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	if cfg.Auth.JWTSecret == "" {
		log.Printf("Warning: No JWT secret configured. Auth tokens will use an empty secret.")
	}

	// Create HTTP router
	router := api.NewRouter(ctx, store, svc, gateway, authService)
	router.StartWebSocketHub()
	if err := notifier.StartDelivery(router.DeliverToPlayer); err != nil {
		log.Fatalf("Failed to start message delivery: %v", err)
	}

	// Start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for signal or error
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		log.Fatalf("HTTP server error: %v", err)
	}

	// Sequential shutdown
	log.Println("Shutting down HTTP server...")
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := server.Shutdown(httpCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	scheduler.Stop()
	notifier.Close()
	gateway.Stop()

	cancel()
	log.Println("Shutdown complete")
}

// CLI helper variables
var (
	baseURL = "http://localhost:8080"
	dbPath  string
)

// loadCLIConfigFromFlags loads config using pre-parsed flag values
func loadCLIConfigFromFlags(configPath, url string) *config.Config {
	// Load config file
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config from %s: %v\n", configPath, err)
		dbPath = "/var/lib/nationd/nationd.db"
		// Use explicit --url flag or default
		if url != "" {
			baseURL = url
		}
		return nil
	}

	dbPath = cfg.Database.Path
	// Derive URL from config, but allow --url flag to override
	if url != "" {
		baseURL = url
	} else {
		baseURL = fmt.Sprintf("http://%s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
	}
	return cfg
}

func loadCLIConfig(args []string) (*config.Config, []string) {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the nationd server")
	fs.Parse(args)

	cfg := loadCLIConfigFromFlags(*configPath, *url)
	return cfg, fs.Args()
}

func cmdNations(args []string) {
	fs := flag.NewFlagSet("nations", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the nationd server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var nations []map[string]interface{}
	if err := getJSON("/api/nations", &nations); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLEVEL\tEXP\tBANK\tWAR")
	fmt.Fprintln(w, "--\t----\t-----\t---\t----\t---")

	for _, n := range nations {
		id := int64(n["id"].(float64))

		warStr := "-"
		var war map[string]interface{}
		if err := getJSON(fmt.Sprintf("/api/nations/%d/war", id), &war); err == nil {
			warStr = fmt.Sprintf("%v (%vs)", war["phase"], war["remaining_seconds"])
		}

		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n",
			id,
			n["name"].(string),
			int(n["level"].(float64)),
			int64(n["exp"].(float64)),
			int64(n["bank_balance"].(float64)),
			warStr)
	}

	w.Flush()
}

func cmdWars(args []string) {
	fs := flag.NewFlagSet("wars", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the nationd server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var status map[string]interface{}
	if err := getJSON("/api/war/status", &status); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	open := "closed"
	if status["match_open"].(bool) {
		open = "open"
	}
	fmt.Printf("Matchmaking: %s\n", open)
	fmt.Printf("Queue size:  %d\n", int(status["queue_size"].(float64)))
}

func cmdUser(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: user subcommand required: add, remove, list\n")
		os.Exit(1)
	}

	// For user commands, we need config but also the subcommand
	subCmd := args[0]
	cfg, remaining := loadCLIConfig(args[1:])
	_ = cfg // cfg may be nil if config loading failed

	// Open database
	store, err := storage.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	switch subCmd {
	case "add":
		if err := cmdUserAdd(ctx, store, remaining); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "remove":
		if err := cmdUserRemove(ctx, store, remaining); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "list":
		if err := cmdUserList(ctx, store); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown user command: %s (use: add, remove, list)\n", subCmd)
		os.Exit(1)
	}
}

func cmdUserAdd(ctx context.Context, store *storage.Store, args []string) error {
	fs := flag.NewFlagSet("user add", flag.ExitOnError)
	isAdmin := fs.Bool("admin", false, "create as admin user")
	fs.Parse(args)

	remaining := fs.Args()
	if len(remaining) < 1 {
		return fmt.Errorf("usage: nationd user add [--admin] <username>")
	}

	username := remaining[0]

	// Check if user already exists
	existing, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("checking existing user: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("user '%s' already exists", username)
	}

	fmt.Print("Enter password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if string(password) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := store.CreateUser(ctx, username, hash, *isAdmin); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	roleStr := "user"
	if *isAdmin {
		roleStr = "admin"
	}
	fmt.Printf("User '%s' created successfully (role: %s)\n", username, roleStr)
	return nil
}

func cmdUserRemove(ctx context.Context, store *storage.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nationd user remove <username>")
	}
	username := args[0]

	if err := store.DeleteUser(ctx, username); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	fmt.Printf("User '%s' removed\n", username)
	return nil
}

func cmdUserList(ctx context.Context, store *storage.Store) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tROLE\tCREATED")
	fmt.Fprintln(w, "--------\t----\t-------")

	for _, user := range users {
		role := "user"
		if user.IsAdmin {
			role = "admin"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", user.Username, role, user.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func getJSON(path string, target interface{}) error {
	url := baseURL + path
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
