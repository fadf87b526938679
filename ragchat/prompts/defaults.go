package prompts

// Variable names shared by the default templates.
const (
	VarQuestion    = "question"
	VarChatHistory = "chat_history"
	VarContext     = "context_str"
	VarQuery       = "query_str"
)

const condenseQuestionText = `Given a conversation (between Human and Assistant) and a follow up message from Human, rewrite the message to be a standalone question that captures all relevant context from the conversation.

<Chat History>
{{.chat_history}}

<Follow Up Message>
{{.question}}

<Standalone question>
`

const contextSystemText = `Context information is below.
--------------------
{{.context_str}}
--------------------
`

const textQAText = `Context information is below.
---------------------
{{.context_str}}
---------------------
Given the context information and not prior knowledge, answer the query.
Query: {{.query_str}}
Answer: `

var (
	// CondenseQuestion rewrites a follow-up into a standalone question.
	CondenseQuestion = Must(New("condense_question", condenseQuestionText, VarQuestion, VarChatHistory))
	// ContextSystem wraps retrieved context into a system message.
	ContextSystem = Must(New("context_system", contextSystemText, VarContext))
	// TextQA answers a query from retrieved context in one completion.
	TextQA = Must(New("text_qa", textQAText, VarContext, VarQuery))
)

// FromText builds a template for user-supplied text, falling back to def when text is empty.
func FromText(name, text string, def *Template) (*Template, error) {
	if text == "" {
		return def, nil
	}
	return New(name, text, def.Variables()...)
}
