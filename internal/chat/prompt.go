package chat

import "fmt"

// systemPrompt is the standing instruction for the answer generator. The
// grounding rules (answer only from context, note missing coverage) are a
// content contract of this template, not enforced by code.
const systemPrompt = `You are a temple-assistant AI for Book My Darshan, a pilgrimage booking service.

Answer the user's question using ONLY the document context supplied in the message. Follow these rules:

1. Never invent facts that are not present in the context.
2. When the context does not cover part of the question, say so explicitly instead of guessing.
3. When listing temples, include only temples actually named in the context, each with its deity when stated.
4. Be concise and organized. Do not repeat information.`

// noKnowledgeAnswer is the fixed answer returned when retrieval finds no
// candidates above the similarity threshold.
const noKnowledgeAnswer = "I couldn't find anything about that in my knowledge base. Try asking differently!"

// buildUserPrompt embeds the assembled context and the user's question into
// the final user-role message.
func buildUserPrompt(context, query string) string {
	return fmt.Sprintf(`Context:
%s

---

User Question: %s

Answer clearly using ONLY the context provided above.
Do not repeat information. Be concise and organized.
If context is missing something, mention it.`, context, query)
}
