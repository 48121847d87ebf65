package gemini

// Fixed instructions sent verbatim to the model. The transcription prompt
// pairs with the response schema in client.go; the model must answer with
// JSON only.
const (
	transcribePrompt = `You are given a sequence of frames sampled from one video clip. ` +
		`Each frame is labeled with its timestamp in seconds. Extract all readable ` +
		`on-screen text (captions, titles, signs, subtitles) from each frame. ` +
		`Return a JSON array of objects {"timestamp": <seconds as integer>, "text": <extracted text>}, ` +
		`ordered by timestamp. Skip frames with no readable text. Do not describe the imagery.`

	isolateTextPrompt = `Rewrite this image so that only its readable text remains, ` +
		`rendered cleanly on a plain neutral background. Keep the wording, line breaks ` +
		`and relative placement of the original text. Remove all other imagery.`
)
