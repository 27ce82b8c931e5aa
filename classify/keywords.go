package classify

// Keyword lists are matched as substrings of the lower-cased message.
// There is no negation or word-boundary handling: "I need one with good
// documentation" is an image request because it contains "need one with".
var (
	imageKeywords = []string{
		"generate",
		"draw",
		"create an image",
		"create a picture",
		"create a photo",
		"make an image",
		"make a picture",
		"image of",
		"picture of",
		"photo of",
		"illustration",
		"render",
		"logo",
		"woman holding",
		"man holding",
		"person holding",
		"need one with",
		"make one with",
		"one with a",
		"product shot",
		"lifestyle image",
		"lifestyle photo",
	}

	lifestyleKeywords = []string{
		"woman holding",
		"man holding",
		"person holding",
		"holding it",
		"with a woman",
		"with a man",
		"with a person",
		"need one with",
		"lifestyle",
		"product shot",
		"in use",
		"being used",
	}

	creativeKeywords = []string{
		"good name",
		"name for",
		"story",
		"poem",
		"lyrics",
		"slogan",
		"tagline",
		"brainstorm",
		"ideas for",
		"creative",
		"write a",
		"write me",
		"caption",
		"joke",
		"imagine",
	}

	functionKeywords = []string{
		"weather",
		"calculate",
		"compute",
		"what time",
		"current time",
		"time in",
		"send email",
		"send an email",
		"database",
		"convert",
		"fetch",
		"http",
	}

	webSearchKeywords = []string{
		"search the web",
		"search online",
		"look up",
		"lookup",
		"latest",
		"current events",
		"news",
		"recent",
		"today's",
		"this week",
		"find information",
		"google",
	}

	fileSearchKeywords = []string{
		"my files",
		"my documents",
		"my document",
		"uploaded",
		"the document",
		"the file",
		"in the pdf",
		"knowledge base",
		"vector store",
	}
)

// Lifestyle context keys in priority order. The first key found in the
// message selects the context phrase; DefaultLifestyleContext is used otherwise.
var lifestyleContexts = []string{
	"woman holding",
	"person holding",
	"lifestyle",
	"product shot",
}

// DefaultLifestyleContext is the context key used when no other key matches.
const DefaultLifestyleContext = "woman holding"
