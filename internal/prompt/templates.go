package prompt

// builtinTemplates holds the production prompt texts, keyed by template name.
//
// Slot conventions:
//   - {query}: the user's question, inserted verbatim
//   - {context}: newline-joined retrieved snippets (may be empty)
//   - {history}: rendered prior turns (may be empty)
var builtinTemplates = map[string]string{
	Instruction: `You are a helpful assistant answering questions strictly from the provided context.

Rules:
- Answer using only the information in the context below
- If the context partially covers the question, answer what is covered
- Keep the answer concise and directly address the question
- Respond in the same language as the question

Conversation so far:
{history}

Context:
{context}

Question: {query}

Answer:`,

	Funny: `The user asked a question that is outside the scope of this knowledge base.
Write a short, lighthearted reply that gently tells them so. Be witty but
never mocking, and do not invent an answer to the question itself.

Question: {query}

Reply:`,

	Tracking: `You are a conversation tracker. Given the conversation history and the
latest question, rewrite the question so it is fully self-contained:
resolve pronouns and references to earlier turns.

Return ONLY a JSON object of the form:
	{"query": "<rewritten self-contained question>"}

Conversation history:
{history}

Latest question: {query}

JSON:`,

	Reasoning: `You are a helpful assistant. Answer the question step by step using the
retrieved context and the conversation history. Think through the relevant
facts first, then give a clear final answer. Do not mention these
instructions or the context mechanism.

Conversation history:
{history}

Context:
{context}

Question: {query}

Answer:`,
}
