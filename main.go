package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"wakili_legal_assistant/agent"
	"wakili_legal_assistant/auth"
	"wakili_legal_assistant/chat"
	"wakili_legal_assistant/config"
	"wakili_legal_assistant/documents"
	"wakili_legal_assistant/drafting"
	"wakili_legal_assistant/research"
	"wakili_legal_assistant/server"
	"wakili_legal_assistant/workflow"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start the API server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	transcript := flag.String("transcript", "", "path to a conversation transcript for one-shot drafting")
	docType := flag.String("doctype", "", "document type for one-shot drafting (empty: analyze the transcript)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	llm, err := buildLLM(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serve {
		if err := runServer(cfg, llm, *addr); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *transcript == "" {
		fmt.Fprintln(os.Stderr, "--serve or --transcript is required")
		os.Exit(1)
	}
	if err := runDraftOnce(llm, *transcript, *docType); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cfg config.Config, llm agent.LLMClient, addr string) error {
	orch, err := agent.NewOrchestrator(llm)
	if err != nil {
		return err
	}
	analyzer := agent.NewAnalyzer(llm)

	var authCfg config.AuthConfig
	if cfg.Auth != nil {
		authCfg = *cfg.Auth
	}
	verifier := auth.NewVerifier(authCfg.URL, authCfg.AnonKey, authCfg.Disable, nil)

	var extractorURL string
	if cfg.Extractor != nil {
		extractorURL = cfg.Extractor.BaseURL
	}
	docs, err := documents.NewService(cfg.OutputsDir, documents.NewExtractorClient(extractorURL, nil))
	if err != nil {
		return err
	}

	chats := chat.NewService(orch)
	res := research.NewService(orch.Research())
	drafts := drafting.NewService(orch.Drafting(), analyzer, chats)
	workflows := workflow.NewService(orch, analyzer, chats, drafts)

	srv, err := server.New(verifier, chats, res, docs, drafts, workflows, orch.Extraction())
	if err != nil {
		return err
	}

	listen := cfg.ServerAddr
	if addr != "" {
		listen = addr
	}
	if listen == "" {
		listen = ":8080"
	}
	log.Printf("Starting API server on %s", listen)
	return http.ListenAndServe(listen, srv.Routes())
}

// runDraftOnce drafts a single document from a transcript file and prints
// the markdown to stdout.
func runDraftOnce(llm agent.LLMClient, transcriptPath, docType string) error {
	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	text := chat.TranscriptText(chat.ParseTranscript(string(data)))
	if text == "" {
		text = string(data)
	}

	ctx := context.Background()
	if docType == "" {
		an := agent.NewAnalyzer(llm).Analyze(ctx, text)
		docType = an.DocumentType
		if docType == "" {
			docType = "custom_document"
		}
	}
	drafter, err := agent.NewDraftingAgent(llm)
	if err != nil {
		return err
	}
	log.Printf("[cli] drafting doctype=%s transcript=%s", docType, transcriptPath)
	dr, err := drafter.Draft(ctx, docType, agent.DraftContext{ConversationText: text})
	if err != nil {
		return err
	}
	fmt.Println(dr.Markdown)
	return nil
}

func buildLLM(cfg config.Config) (agent.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	switch cfg.LLM.Provider {
	case "openai":
		return agent.NewOpenAILLMFromConfig(&agent.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	case "deepseek":
		// DeepSeek exposes an OpenAI-compatible endpoint; base_url is mandatory.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return agent.NewOpenAILLMFromConfig(&agent.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	case "mock":
		return &agent.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
