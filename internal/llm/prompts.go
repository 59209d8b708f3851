package llm

// DefaultDescribePrompt asks the vision model for an image-generation prompt
// built around the thumbnail's subject.
const DefaultDescribePrompt = "You are an expert in writing prompts for image generation model and have immense knowledge of photography, based on given image and settings, generate a 150 words prompt adding supporting props to the image subject, but do NOT add too much information, keep it on the simpler side. Add 'a photo of' prefix to a prompt"

// DefaultNegativePrompt is sent with every Imagen request.
const DefaultNegativePrompt = `1. Avoid maps or geographical locations that promote stereotypes or favor certain regions
2. Avoid content that promotes or disparages any particular religion or religious belief.
3. Avoid content that reinforces gender stereotypes or biases.
`

const logoSystemInstruction = "You are a image data analyst with expertise in commercial logos. Please do not hallucinate. You can just output nothing if there are no positive findings."

const logoDetectionPrompt = `Identify and detect logos within an image, providing information about the logo's name, position, and confidence score.

# Steps:
1. **Image Analysis**: Load and preprocess the input image for logo detection, ensuring appropriate scaling and color adjustment.
2. **Logo Detection**: Use a logo detection model or algorithm to identify potential logos within the image.
3. **Localization and Classification**: Determine the position (bounding box) of each detected logo, classify it to identify its name, and calculate the detection confidence score.
4. **Compile Results**: Gather the results, including logo name, position, and confidence score.

# Notes
- Ensure that the provided confidence score reflects the accuracy of the detection result.
- Handle images of varying resolutions and formats for robust detection capabilities.
`

// dallEPromptWrapper keeps DALL-E from rendering the prompt as text.
const dallEPromptWrapper = `Do not print any text on image, just use it AS-IS:
%s

Guidelines:
- Please ensure that the image does not include any text or human imagery.
- Generate image without map of india.
`
