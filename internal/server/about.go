package server

const (
	pageTitle   = "IdeaVault"
	heading     = "How to leverage AI for social good."
	banner      = "💡 → 🤖 → 🕸️ "
	placeholder = "Present an idea"

	failureNotice = "The assistant could not answer right now. Please try again."
)

// about is markdown rendered under the heading on a fresh page.
const about = `
Let’s not deceive ourselves: AI is scary. **AI is terrifying**. AI can and will be used for terrible things. **But that’s not the full story**. I’m convinced that human ingenuity can harness AI for ***incredible*** social good.

**I present to you a chatbot that reverses the roles entirely**. Unlike conventional chatbots that answer your questions, this one is in search of your most inventive, groundbreaking ideas on how AI can benefit humanity, ***in any way imaginable***.

Your mind, shaped by the experiences that have defined you, **makes you fundamentally unique**. It's that distinct mind that I’m inviting to hold center stage. ***Think!!!*** The goal is to collaboratively train our AI, ***using authentic human insight***, to amass a wealth of exceptional, unconventional ideas on leveraging AI ***for genuine, wholesome good***.

Acting as your advocate, the AI will rephrase your idea to improve its readability, coherence, and clarity. Once you feel that the AI has faithfully represented your idea, it is then vectorized and shared to a publicly accessible Obsidian vault, **providing us with an intuitive way of gazing inside our growing knowledge base**.

*Submit your idea and receive the link to the **IdeaVault!***
`
