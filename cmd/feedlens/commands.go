package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feedlens/feedlens/internal/config"
)

// --- login / logout ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store a session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		if username == "" {
			return fmt.Errorf("--username is required")
		}
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimSpace(line)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/login", map[string]string{
			"username": username,
			"password": password,
		})
		if err != nil {
			return err
		}

		var result struct {
			Token       string   `json:"token"`
			Role        string   `json:"role"`
			Permissions []string `json:"permissions"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if err := config.SaveSessionToken(result.Token); err != nil {
			return fmt.Errorf("saving session token: %w", err)
		}

		printSuccess("Logged in as %s (%s)", username, result.Role)
		printStatus("Permissions", "%s", strings.Join(result.Permissions, ", "))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/logout", nil)
		if err == nil {
			resp.Body.Close()
		}

		if err := config.ClearSessionToken(); err != nil {
			return fmt.Errorf("clearing session token: %w", err)
		}
		printSuccess("Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "account username")
	loginCmd.Flags().String("password", "", "account password (prompted if omitted)")
}

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <file.csv>",
	Short: "Upload a feedback dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening dataset: %w", err)
		}
		defer f.Close()

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.upload(cmd.Context(), "/datasets", args[0], f)
		if err != nil {
			return err
		}

		var preview struct {
			Name            string `json:"name"`
			Rows            int    `json:"rows"`
			TextColumn      string `json:"text_column"`
			SentimentColumn string `json:"sentiment_column"`
			Columns         []struct {
				Name string `json:"name"`
				Kind string `json:"kind"`
			} `json:"columns"`
		}
		if err := decodeJSON(resp, &preview); err != nil {
			return err
		}

		printSuccess("Uploaded %s (%d rows)", preview.Name, preview.Rows)
		for _, col := range preview.Columns {
			fmt.Printf("  %s (%s)\n", col.Name, col.Kind)
		}
		if preview.TextColumn != "" {
			printStatus("Text column", "%s", preview.TextColumn)
		}
		if preview.SentimentColumn != "" {
			printStatus("Sentiment column", "%s", preview.SentimentColumn)
		} else {
			printWarning("No sentiment column detected; pass --sentiment-column to train")
		}
		return nil
	},
}

// --- train ---

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the sentiment model on an uploaded dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("dataset")
		textCol, _ := cmd.Flags().GetString("text-column")
		sentimentCol, _ := cmd.Flags().GetString("sentiment-column")

		if name == "" {
			return fmt.Errorf("--dataset is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/train", map[string]string{
			"dataset":          name,
			"text_column":      textCol,
			"sentiment_column": sentimentCol,
		})
		if err != nil {
			return err
		}

		var result struct {
			Accuracy  float64 `json:"accuracy"`
			TrainRows int     `json:"train_rows"`
			TestRows  int     `json:"test_rows"`
			Dropped   int     `json:"dropped"`
			Ingested  int     `json:"ingested"`
			Classes   []struct {
				Class     string  `json:"class"`
				Precision float64 `json:"precision"`
				Recall    float64 `json:"recall"`
				F1        float64 `json:"f1"`
				Support   int     `json:"support"`
			} `json:"classes"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Model trained (accuracy %.1f%%)", result.Accuracy*100)
		printStatus("Rows", "%d train / %d test / %d dropped", result.TrainRows, result.TestRows, result.Dropped)
		printStatus("Ingested", "%d feedback records", result.Ingested)
		for _, c := range result.Classes {
			fmt.Printf("  %-10s precision %.2f  recall %.2f  f1 %.2f  (n=%d)\n",
				c.Class, c.Precision, c.Recall, c.F1, c.Support)
		}
		return nil
	},
}

func init() {
	trainCmd.Flags().String("dataset", "", "name of an uploaded dataset")
	trainCmd.Flags().String("text-column", "", "text column (inferred when omitted)")
	trainCmd.Flags().String("sentiment-column", "", "sentiment column (inferred when omitted)")
}

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Import feedback lines from a PDF document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening pdf: %w", err)
		}
		defer f.Close()

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.upload(cmd.Context(), "/feedback/import", args[0], f)
		if err != nil {
			return err
		}

		var result struct {
			Imported int `json:"imported"`
			Labeled  int `json:"labeled"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Imported %d feedback entries", result.Imported)
		if result.Labeled > 0 {
			printStatus("Labeled", "%d via trained model", result.Labeled)
		} else {
			printWarning("No trained model; entries stored unlabeled")
		}
		return nil
	},
}

// --- predict ---

var predictCmd = &cobra.Command{
	Use:   "predict <text>",
	Short: "Score a piece of text with the trained model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/predict", map[string]string{"text": text})
		if err != nil {
			return err
		}

		var pred struct {
			Label         string             `json:"label"`
			Confidence    float64            `json:"confidence"`
			Probabilities map[string]float64 `json:"probabilities"`
		}
		if err := decodeJSON(resp, &pred); err != nil {
			return err
		}

		color := colorYellow
		switch pred.Label {
		case "positive":
			color = colorGreen
		case "negative":
			color = colorRed
		}
		fmt.Printf("%s (%.1f%% confidence)\n", colorize(color, pred.Label), pred.Confidence*100)
		for label, p := range pred.Probabilities {
			fmt.Printf("  %-10s %.3f\n", label, p)
		}
		return nil
	},
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feedback sentiment statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/feedback/stats")
		if err != nil {
			return err
		}

		var stats struct {
			Total      int            `json:"total"`
			Sentiments map[string]int `json:"sentiments"`
			Platforms  map[string]int `json:"platforms"`
		}
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}

		printStatus("Total feedback", "%d", stats.Total)
		for _, label := range []string{"positive", "negative", "neutral", "unlabeled"} {
			if n, ok := stats.Sentiments[label]; ok {
				printStatus(label, "%d", n)
			}
		}
		if len(stats.Platforms) > 0 {
			fmt.Fprintln(os.Stderr, colorize(colorBold, "  By platform:"))
			for platform, n := range stats.Platforms {
				fmt.Fprintf(os.Stderr, "    %s: %d\n", platform, n)
			}
		}
		return nil
	},
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report <product|campaign>",
	Short: "Download a sentiment report as PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		if kind != "product" && kind != "campaign" {
			return fmt.Errorf("report kind must be product or campaign")
		}
		filter, _ := cmd.Flags().GetString("filter")
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = kind + "_report.pdf"
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/reports/" + kind
		if filter != "" {
			path += "?" + kind + "=" + filter
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if _, err := io.Copy(f, resp.Body); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}

		printSuccess("Report written to %s", output)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("filter", "", "restrict the report to one product or campaign")
	reportCmd.Flags().String("output", "", "output file path (default: <kind>_report.pdf)")
}

// --- users ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage dashboard accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/users")
		if err != nil {
			return err
		}

		var users []struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		}
		if err := decodeJSON(resp, &users); err != nil {
			return err
		}

		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%s  %-16s %-20s %s\n",
				colorize(colorCyan, fmt.Sprintf("%4d", u.ID)), u.Username, u.Email, u.Role)
		}
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")

		if username == "" || password == "" {
			return fmt.Errorf("--username and --password are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/users", map[string]string{
			"username": username,
			"email":    email,
			"password": password,
			"role":     role,
		})
		if err != nil {
			return err
		}

		var result struct {
			ID   int64  `json:"id"`
			Role string `json:"role"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Created user %s (id %d, role %s)", username, result.ID, result.Role)
		return nil
	},
}

func init() {
	usersAddCmd.Flags().String("username", "", "account username")
	usersAddCmd.Flags().String("email", "", "account email")
	usersAddCmd.Flags().String("password", "", "account password")
	usersAddCmd.Flags().String("role", "user", "role: administrator, product_manager, marketing, or user")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
