// Package settings implements the per-chat configuration store (C8): a
// closed set of typed keys with process-wide defaults, overridable per chat.
package settings

// Key identifies one recognized chat setting (§6 "Chat settings").
type Key string

const (
	DetectSpam                Key = "detect-spam"
	AutoSpamMaxMessages       Key = "auto-spam-max-messages"
	SpamWarnThreshold         Key = "spam-warn-threshold"
	SpamBanThreshold          Key = "spam-ban-threshold"
	BayesEnabled              Key = "bayes-enabled"
	BayesAutoLearn            Key = "bayes-auto-learn"
	BayesMinConfidence        Key = "bayes-min-confidence"
	SpamDeleteAllUserMessages Key = "spam-delete-all-user-messages"
	AllowMarkSpamOldUsers     Key = "allow-mark-spam-old-users"
	AllowUserSpamCommand      Key = "allow-user-spam-command"
	AdminCanChangeSettings    Key = "admin-can-change-settings"

	// LLM model identifiers, carried from the teacher's config surface
	// (§"chat-model, summary-model, etc.").
	ChatModel            Key = "chat-model"
	SummaryModel         Key = "summary-model"
	FallbackModel        Key = "fallback-model"
	SummaryFallbackModel Key = "summary-fallback-model"
	ImageModel           Key = "image-model"
	SummaryPrompt        Key = "summary-prompt"
	ChatPrompt           Key = "chat-prompt"
	ParseImagePrompt     Key = "parse-image-prompt"
	BotNicknames         Key = "bot-nicknames"
	LLMMessageFormat     Key = "llm-message-format"
	UseTools             Key = "use-tools"
	SaveImages           Key = "save-images"
	ParseImages          Key = "parse-images"
)

// Kind is the parsed type of a setting's string value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

type definition struct {
	kind    Kind
	display string
}

var registry = map[Key]definition{
	DetectSpam:                {KindBool, "Enable spam detection in group chats"},
	AutoSpamMaxMessages:       {KindInt, "Message-count ceiling above which spam-check is skipped; 0 disables"},
	SpamWarnThreshold:         {KindFloat, "Spam score warn threshold"},
	SpamBanThreshold:          {KindFloat, "Spam score ban threshold"},
	BayesEnabled:              {KindBool, "Allow the Bayes classifier to contribute to the spam score"},
	BayesAutoLearn:            {KindBool, "On mark-as-spam, train the Bayes model on the message"},
	BayesMinConfidence:        {KindFloat, "Minimum Bayes confidence required to trust its score"},
	SpamDeleteAllUserMessages: {KindBool, "Bulk-delete a user's recent messages on ban"},
	AllowMarkSpamOldUsers:     {KindBool, "Permit admins to mark established users as spammers"},
	AllowUserSpamCommand:      {KindBool, "Permit non-admins to use /spam"},
	AdminCanChangeSettings:    {KindBool, "Gate the settings UI to admins"},
	ChatModel:                 {KindString, "Default chat LLM model"},
	SummaryModel:              {KindString, "Summary LLM model"},
	FallbackModel:             {KindString, "Fallback chat LLM model"},
	SummaryFallbackModel:      {KindString, "Fallback summary LLM model"},
	ImageModel:                {KindString, "Image-understanding LLM model"},
	SummaryPrompt:             {KindString, "System prompt for summarization"},
	ChatPrompt:                {KindString, "System prompt for chat replies"},
	ParseImagePrompt:          {KindString, "System prompt for image parsing"},
	BotNicknames:              {KindString, "Comma-separated nicknames the bot responds to"},
	LLMMessageFormat:          {KindString, "Message formatting mode sent to the LLM"},
	UseTools:                  {KindBool, "Enable LLM tool-calling"},
	SaveImages:                {KindBool, "Persist received images"},
	ParseImages:               {KindBool, "Send received images to the image model"},
}

// Defaults are the process-wide fallback values used when a chat has no
// override row (§6 "Default values live in code; per-chat overrides in
// storage.").
var Defaults = map[Key]string{
	DetectSpam:                "true",
	AutoSpamMaxMessages:       "20",
	SpamWarnThreshold:         "50",
	SpamBanThreshold:          "100",
	BayesEnabled:              "true",
	BayesAutoLearn:            "true",
	BayesMinConfidence:        "0.1",
	SpamDeleteAllUserMessages: "false",
	AllowMarkSpamOldUsers:     "false",
	AllowUserSpamCommand:      "true",
	AdminCanChangeSettings:    "true",
	ChatModel:                 "gpt-4o-mini",
	SummaryModel:              "gpt-4o-mini",
	FallbackModel:             "gpt-4o-mini",
	SummaryFallbackModel:      "gpt-4o-mini",
	ImageModel:                "gpt-4o-mini",
	SummaryPrompt:             "",
	ChatPrompt:                "",
	ParseImagePrompt:          "",
	BotNicknames:              "",
	LLMMessageFormat:          "markdown",
	UseTools:                  "true",
	SaveImages:                "false",
	ParseImages:               "false",
}

// IsRecognized reports whether key is one of the closed set of settings.
func IsRecognized(key Key) bool {
	_, ok := registry[key]
	return ok
}

// KindOf returns the parse kind for key.
func KindOf(key Key) Kind {
	return registry[key].kind
}
