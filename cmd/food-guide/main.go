package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"food-tourism-assistant/internal/app"
	"food-tourism-assistant/internal/config"
	"food-tourism-assistant/internal/session"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	switch os.Args[1] {
	case "classify":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		pred, err := application.ClassifyFile(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Classification failed: %v", err)
		}
		status := "accepted"
		if !application.Accepts(pred) {
			status = "below threshold"
		}
		fmt.Printf("%s (index %d): %.1f%% [%s]\n", pred.Label, pred.Index, pred.Confidence*100, status)
	case "chat":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		if err := chat(ctx, application, os.Args[2]); err != nil {
			log.Fatalf("Chat failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := application.MetricsStore().Cleanup(*days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// chat uploads the image at path and answers questions read from stdin until
// EOF.
func chat(ctx context.Context, application *app.App, path string) error {
	sess := session.New("", application.Deps())
	return runChat(ctx, sess, path, os.Stdin, os.Stdout)
}

// runChat drives sess from in. Lines starting with / are commands:
// /image <path> uploads another photo, /reset forgets the dish, /quit exits.
func runChat(ctx context.Context, sess *session.Session, path string, in io.Reader, out io.Writer) error {
	if err := uploadFile(ctx, sess, path, out); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			fmt.Fprintln(out, sess.Reset().Content)
		case strings.HasPrefix(line, "/image"):
			p := strings.TrimSpace(strings.TrimPrefix(line, "/image"))
			if p == "" {
				fmt.Fprintln(out, "Usage: /image <path>")
				break
			}
			if err := uploadFile(ctx, sess, p, out); err != nil {
				fmt.Fprintln(out, err)
			}
		case sess.State() == session.StateNoImage:
			fmt.Fprintln(out, noImageHint)
		default:
			fmt.Fprintln(out, sess.Ask(line).Content)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

const noImageHint = "No dish identified yet. Use /image <path> to try another photo, or /quit."

func uploadFile(ctx context.Context, sess *session.Session, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	reply, err := sess.Upload(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply.Content)
	if sess.State() == session.StateNoImage {
		fmt.Fprintln(out, noImageHint)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: food-guide <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  classify <image>   Print the predicted dish and confidence")
	fmt.Println("  chat <image>       Identify a dish and answer questions from stdin (/image, /reset, /quit)")
	fmt.Println("  metrics-cleanup    Remove old metric records (-days N)")
}
