package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kashi/internal/editor"
	"github.com/mgpai22/kashi/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [lyrics_file]",
	Short: "Translate lyrics to another language using AI",
	Long: `Translate the lines of a lyrics file to another language using AI.

Timings are kept; only the text of each line is replaced. The output
format follows the output extension and defaults to the input format.

The --overlay flag creates bilingual lyrics with the translated text
first, followed by the original text on the next line.

When --language is not given the source language is detected from the
lyrics themselves.

Examples:
  kashi translate song.srt --target-language japanese
  kashi translate song.json -t es --overlay
  kashi translate song.vtt --provider anthropic -t french -o song.fr.ass`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual lyrics)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers (default from config, 3)")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of lines per API request (default from config, 50)")
	translateCmd.Flags().
		String("prompt", "", "Additional instructions for the translator")

	_ = translateCmd.MarkFlagRequired("target-language")
}

// translatorFactory is replaced in tests.
var translatorFactory = translate.Factory

func runTranslate(cmd *cobra.Command, args []string) error {
	lyricsPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	targetLang, _ := cmd.Flags().GetString("target-language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	modelOverride, _ := cmd.Flags().GetBool("model-override")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	prompt, _ := cmd.Flags().GetString("prompt")
	outputPath, _ := cmd.Flags().GetString("output")
	inputLang, _ := cmd.Flags().GetString("language")

	if providerStr == "" {
		providerStr = cfg.Translate.Provider
	}
	if model == "" {
		model = cfg.Translate.Model
	}
	if concurrency == 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if batchSize == 0 {
		batchSize = cfg.Translate.BatchSize
	}

	if strings.TrimSpace(targetLang) == "" {
		return fmt.Errorf("target language is required")
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	provider := translate.Provider(strings.ToLower(providerStr))

	if apiKey == "" {
		var envVar string
		apiKey, envVar = cfg.APIKey(string(provider))
		if apiKey == "" {
			return fmt.Errorf(
				"API key is required: use --api-key flag or set %s environment variable",
				envVar,
			)
		}
	}

	if model != "" && !modelOverride {
		if err := validateModel(provider, model); err != nil {
			return err
		}
	}

	sess := newSession()
	n, err := sess.ImportFile(lyricsPath, true)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", lyricsPath, err)
	}

	sameLanguage := false
	if inputLang == "" {
		if st := sess.Stats(); st.Detected && st.Language.Reliable {
			inputLang = st.Language.Name
			sameLanguage = st.Language.Matches(targetLang)
			logger.Infow("Detected lyrics language", "language", inputLang, "code", st.Language.Code)
		}
	} else {
		sameLanguage = strings.EqualFold(
			strings.TrimSpace(inputLang),
			strings.TrimSpace(targetLang),
		)
	}
	if sameLanguage {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	ext := filepath.Ext(lyricsPath)
	if outputPath == "" {
		baseName := strings.TrimSuffix(lyricsPath, ext)
		if overlay {
			outputPath = fmt.Sprintf("%s.%s.overlay%s", baseName, targetLang, ext)
		} else {
			outputPath = fmt.Sprintf("%s.%s%s", baseName, targetLang, ext)
		}
	}

	logger.Infow("Starting lyrics translation",
		"input", lyricsPath,
		"output", outputPath,
		"entries", n,
		"provider", provider,
		"target_language", targetLang,
		"input_language", inputLang,
		"overlay", overlay,
		"model", model,
	)

	translator, err := translatorFactory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		Prompt:         prompt,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	changed, err := sess.Translate(ctx, translator, editor.TranslateOptions{
		Concurrency: concurrency,
		Overlay:     overlay,
	})
	if err != nil {
		return err
	}

	written, err := sess.ExportFile(outputPath, "")
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(written)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lyrics translated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", n)
	fmt.Fprintf(out, "  Translated: %d\n", changed)
	fmt.Fprintf(out, "  Target language: %s\n", targetLang)
	if overlay {
		fmt.Fprintf(out, "  Mode: bilingual overlay\n")
	}

	return nil
}
