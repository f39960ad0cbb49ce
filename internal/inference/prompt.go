// File: internal/inference/prompt.go
package inference

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// defaultRules is the preamble sent with every prompt when no rules file is
// present. The response format block doubles as the schema the decision
// package validates against, so the two must stay in agreement.
const defaultRules = `AUTOMATION SAFETY RULES:
1. Never perform destructive actions like deleting files or formatting drives
2. Never access sensitive information or passwords
3. Always confirm actions that might affect system settings
4. Prefer safe, reversible actions
5. If unsure about an action, request clarification
6. Never automate actions that could harm the system or user data
7. Focus on productivity and user assistance tasks
8. Avoid clicking on suspicious links or downloads
9. Never perform financial transactions without explicit confirmation
10. Always respect user privacy and security

RESPONSE FORMAT:
Always respond with valid JSON containing:
{
    "action": "click|type|key|scroll|wait",
    "coordinates": [x, y] (for click actions),
    "text": "text to type" (for type actions),
    "key": "key name" (for key actions like 'enter', 'tab', 'ctrl+c'),
    "direction": "up|down|left|right" (for scroll actions),
    "amount": number (for scroll amount),
    "duration": seconds (for wait actions),
    "reasoning": "explanation of why this action was chosen"
}`

// internetKeywords flag instructions that depend on connectivity. Matching is
// substring-based over the lowercased instruction.
var internetKeywords = []string{
	"chrome", "firefox", "edge", "browser", "outlook", "email",
	"teams", "discord", "steam", "spotify", "youtube", "google",
	"internet", "online", "web", "gmail", "facebook", "twitter",
}

const offlineContext = `IMPORTANT: This command requires internet connectivity, but internet is not currently available.
You should respond with a wait action and explain that you're waiting for internet connectivity.
Example response: {"action": "wait", "duration": 5, "reasoning": "Waiting for internet connection to open Chrome"}`

const onlineContext = `INTERNET STATUS: Internet connection is available. You can proceed with internet-dependent actions.`

// PromptBuilder assembles the analysis prompt sent with every screenshot.
// Rules are loaded once at construction.
type PromptBuilder struct {
	rules string
}

// NewPromptBuilder loads the rules preamble from rulesFile, falling back to
// the built-in rules when the file is absent or unreadable.
func NewPromptBuilder(rulesFile string, logger *zap.Logger) *PromptBuilder {
	log := logger.Named("prompt")
	rules := defaultRules
	if rulesFile != "" {
		content, err := os.ReadFile(rulesFile)
		switch {
		case err == nil && len(strings.TrimSpace(string(content))) > 0:
			rules = strings.TrimSpace(string(content))
			log.Debug("Loaded rules file", zap.String("path", rulesFile))
		case err != nil && !os.IsNotExist(err):
			log.Warn("Could not read rules file, using built-in rules",
				zap.String("path", rulesFile), zap.Error(err))
		}
	}
	return &PromptBuilder{rules: rules}
}

// NeedsInternet reports whether the instruction mentions anything from the
// connectivity keyword list.
func NeedsInternet(instruction string) bool {
	lower := strings.ToLower(instruction)
	for _, kw := range internetKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Build renders the full analysis prompt for one instruction. For
// internet-dependent instructions the current connectivity state is woven in
// so an offline model prefers waiting over clicking at a dead browser.
func (b *PromptBuilder) Build(instruction string, internetAvailable bool) string {
	internetContext := ""
	if NeedsInternet(instruction) {
		if internetAvailable {
			internetContext = onlineContext
		} else {
			internetContext = offlineContext
		}
	}

	return fmt.Sprintf(`You are an AI desktop automation assistant. You can see the current desktop screenshot and need to decide what action to take based on the user's command.

RULES AND GUIDELINES:
%s

%s

USER COMMAND: %s

Analyze the screenshot and determine the appropriate action to fulfill the user's command. Consider:
1. What UI elements are visible on the screen
2. Where should I click or what should I type to accomplish the task
3. What is the most logical next step
4. If the command requires internet and it's not available, wait for connectivity

Respond ONLY with valid JSON in the exact format specified in the rules. Do not include any other text or explanation outside the JSON.`,
		b.rules, internetContext, instruction)
}
