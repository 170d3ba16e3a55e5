package prompt

// SystemInstruction is sent ahead of every conversation
const SystemInstruction = "You are a helpful, concise assistant. Be brief unless more detail is requested - give responses in markdown. " +
	"Wrap code in code brackets."
