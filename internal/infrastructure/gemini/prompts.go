package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IngredientsOCRPrompt asks the model to transcribe an ingredients list
const IngredientsOCRPrompt = `You are an OCR (Optical Character Recognition) engine.

I'm providing an image of a product ingredients list.

YOUR TASK:
1. Look at this image CAREFULLY and extract ONLY the text visible in the ingredients list.
2. Output ONLY the extracted text, without any commentary or explanation.
3. Maintain the format (commas, spacing) exactly as it appears in the image.
4. If you can't read some text clearly, indicate with [unclear].
5. Do not make up or infer any text that is not clearly visible in the image.

JUST EXTRACT THE TEXT. NOTHING ELSE.`

// BarcodeOCRPrompt asks the model for the barcode digits only
const BarcodeOCRPrompt = "Can you extract the barcode from the image? Please provide only barcode without any spaces and no other text."

const ingredientSchema = `{
  "extractedText": "the corrected ingredients text",
  "ingredients": ["ingredient1", "ingredient2"],
  "harmfulIngredients": [
    {
      "name": "ingredient name",
      "reason": "detailed explanation of health concerns",
      "severity": "low/medium/high"
    }
  ],
  "safeIngredients": ["ingredient1", "ingredient2"],
  "unknownIngredients": ["ingredient1", "ingredient2"],
  "safetyScore": number from 0-100,
  "overallSafety": "detailed summary of overall safety assessment",
  "detailedAnalysis": "comprehensive explanation of all ingredient findings",
  "nutritionScore": number from 0-100,
  "sustainabilityScore": number from 0-100,
  "processingLevel": "minimally processed", "processed", "highly processed", or "ultra-processed"
}`

const productSchema = `{
  "nutritionScore": number between 0-100 (required),
  "nutritionEvaluation": detailed explanation (required),
  "allergens": ["allergen1", "allergen2"] (required),
  "additives": ["additive1", "additive2"] (required),
  "sustainabilityScore": number between 0-100 (required),
  "processingLevel": classification string (required),
  "overallRecommendation": comprehensive summary of findings (required)
}`

// BuildIngredientPrompt renders the ingredient safety prompt
func BuildIngredientPrompt(text string, tokens []string) string {
	var list strings.Builder
	for _, token := range tokens {
		fmt.Fprintf(&list, "- %s\n", token)
	}

	return fmt.Sprintf(`You are a food safety expert analyzing an ingredients list.

Here is an ingredients list extracted from a product label:
%q

These are the individual ingredients identified in it:
%s
IMPORTANT TASKS:
1. Correct any obvious recognition errors in the ingredients list.
2. If the list seems incomplete or garbled, note this in your analysis.
3. Analyze each ingredient for potential health concerns.
4. Categorize each as "harmful", "safe", or "unknown".
5. For harmful ingredients, explain the concerns and rate severity (low/medium/high).
6. Assign an overall safety score from 0-100.
7. Assign an overall nutrition score for the whole product from 0-100.
8. Assign an overall sustainability score for the whole product from 0-100.
9. Assign an overall processing level for the whole product.

YOUR RESPONSE MUST BE IN THIS JSON FORMAT:
%s

IMPORTANT: safetyScore, nutritionScore, and sustainabilityScore MUST be numbers, not strings. Do not wrap them in quotes.`,
		text, list.String(), ingredientSchema)
}

// BuildProductPrompt renders the whole-product nutrition prompt. The product
// photo is sent as an image part next to it.
func BuildProductPrompt(productData map[string]any) string {
	data := "{}"
	if len(productData) > 0 {
		if encoded, err := json.MarshalIndent(productData, "", "  "); err == nil {
			data = string(encoded)
		}
	}

	return fmt.Sprintf(`You are a nutritionist and food science expert analyzing a food product.

I'm providing a food product image and data for analysis.

Here is additional product data:
%s

IMPORTANT INSTRUCTIONS:
Carefully examine the image and provided data, then provide a comprehensive analysis including:
1. Nutrition analysis - evaluate the healthiness on a scale of 0-100 with detailed explanation
2. Allergenic content - identify ALL potential allergens present
3. Additives and preservatives - identify ALL additives with health impact notes
4. Sustainability score - evaluate environmental impact on a scale of 0-100
5. Processing level - classify as "minimally processed", "processed", "highly processed", or "ultra-processed"

YOUR RESPONSE MUST BE IN THIS JSON FORMAT AND NOTHING ELSE:
%s

IMPORTANT: nutritionScore and sustainabilityScore MUST be numbers, not strings. Do not wrap them in quotes.
Always include ALL fields in your response, even if empty (use [] for empty lists and 50 for uncertain scores).`,
		data, productSchema)
}

// BuildAssistantPrompt frames a user question for the food assistant
func BuildAssistantPrompt(question string) string {
	return fmt.Sprintf("You are a helpful food assistant on the NutriScan platform.\n\nUser query: %s", question)
}
