// Email service CLI - template and SMTP smoke-test tool
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/odiseo-io/email-service/pkg/mail"
	"github.com/odiseo-io/email-service/pkg/render"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "render":
		renderCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "send":
		sendCmd(os.Args[2:])
	case "list":
		listCmd(os.Args[2:])
	case "version":
		fmt.Println("emailctl v1.0.0")
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`emailctl - Email Service CLI

Usage:
  emailctl <command> [options]

Commands:
  render     Render an email template to HTML or text
  validate   Validate HTML for email client compatibility
  send       Send a test email via SMTP
  list       List available templates
  version    Show version
  help       Show this help

Examples:
  emailctl render -type=booking_created -data=booking.json -out=email.html
  emailctl validate -file=email.html
  emailctl send -to=test@example.com -file=email.html
  emailctl list -dir=./templates

Environment Variables:
  SMTP_HOST        SMTP server host
  SMTP_PORT        SMTP server port (default: 587)
  SMTP_USERNAME    SMTP username
  SMTP_PASSWORD    SMTP password
  SMTP_FROM_EMAIL  Sender address (default: SMTP_USERNAME)
  SMTP_FROM_NAME   Sender display name
  SMTP_USE_TLS     Set to "false" to disable STARTTLS (default: true)`)
}

func renderCmd(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	emailType := fs.String("type", "", "Email type to render")
	templateDir := fs.String("dir", "./templates", "Template directory")
	format := fs.String("format", "html", "Output format: html or text")
	outFile := fs.String("out", "", "Output file (default: stdout)")
	dataFile := fs.String("data", "", "JSON data file for the template")
	fs.Parse(args)

	if *emailType == "" {
		fmt.Println("Error: -type is required")
		os.Exit(1)
	}

	data := map[string]any{}
	if *dataFile != "" {
		content, err := os.ReadFile(*dataFile)
		if err != nil {
			fmt.Printf("Error reading data file: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(content, &data); err != nil {
			fmt.Printf("Error parsing data file: %v\n", err)
			os.Exit(1)
		}
	}

	renderer := render.NewRenderer(render.WithTemplateDir(*templateDir))
	if err := renderer.LoadTemplatesFromDir(*templateDir); err != nil {
		fmt.Printf("Error loading templates: %v\n", err)
		os.Exit(1)
	}

	var body string
	var err error
	switch *format {
	case "html":
		body, err = renderer.RenderHTML(*emailType, data)
	case "text":
		body, err = renderer.RenderText(*emailType, data)
	default:
		fmt.Printf("Error: unknown format %q (want html or text)\n", *format)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error rendering template: %v\n", err)
		os.Exit(1)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(body), 0644); err != nil {
			fmt.Printf("Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Rendered to %s (%d bytes)\n", *outFile, len(body))
	} else {
		fmt.Println(body)
	}
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "", "HTML file to validate")
	fs.Parse(args)

	if *file == "" {
		fmt.Println("Error: -file is required")
		os.Exit(1)
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	issues := mail.LintHTML(string(content))
	if len(issues) == 0 {
		fmt.Printf("✓ %s - No compatibility issues found\n", *file)
	} else {
		fmt.Printf("⚠ %s - Found %d issue(s):\n", *file, len(issues))
		for _, issue := range issues {
			fmt.Printf("  • %s\n", issue)
		}
		os.Exit(1)
	}
}

func sendCmd(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	to := fs.String("to", "", "Recipient email address")
	file := fs.String("file", "", "HTML file to send")
	subject := fs.String("subject", "Email Service Test", "Email subject")
	fs.Parse(args)

	if *to == "" || *file == "" {
		fmt.Println("Error: -to and -file are required")
		os.Exit(1)
	}

	conf := smtpConfigFromEnv()
	if conf.Host == "" || conf.Username == "" || conf.Password == "" {
		fmt.Println("Error: SMTP_HOST, SMTP_USERNAME and SMTP_PASSWORD environment variables required")
		os.Exit(1)
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	transport := mail.NewTransport(conf)
	defer transport.Close()

	msg := mail.Message{
		To:      *to,
		Subject: *subject,
		HTML:    string(content),
	}
	if err := transport.Send(context.Background(), msg); err != nil {
		fmt.Printf("Error sending email: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Email sent to %s\n", *to)
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dir := fs.String("dir", "./templates", "Template directory")
	fs.Parse(args)

	renderer := render.NewRenderer(render.WithTemplateDir(*dir))
	if err := renderer.LoadTemplatesFromDir(*dir); err != nil {
		fmt.Printf("Error loading templates: %v\n", err)
		os.Exit(1)
	}

	names := renderer.ListTemplates()
	if len(names) == 0 {
		fmt.Printf("No templates in %s\n", *dir)
		return
	}

	fmt.Printf("Templates in %s:\n", *dir)
	for _, name := range names {
		fmt.Printf("  • %s\n", name)
	}
}

func smtpConfigFromEnv() mail.Config {
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	conf := mail.Config{
		Host:      os.Getenv("SMTP_HOST"),
		Port:      port,
		Username:  os.Getenv("SMTP_USERNAME"),
		Password:  os.Getenv("SMTP_PASSWORD"),
		FromEmail: os.Getenv("SMTP_FROM_EMAIL"),
		FromName:  os.Getenv("SMTP_FROM_NAME"),
		UseTLS:    os.Getenv("SMTP_USE_TLS") != "false",
	}
	if conf.FromEmail == "" {
		conf.FromEmail = conf.Username
	}
	return conf
}
