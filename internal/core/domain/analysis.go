package domain

// DocumentType is the category a document was classified into.
type DocumentType string

// Document types, in classification table order.
const (
	DocumentTypeInsurancePolicy DocumentType = "insurance_policy"
	DocumentTypeContract        DocumentType = "contract"
	DocumentTypeManual          DocumentType = "manual"
	DocumentTypeReport          DocumentType = "report"
	DocumentTypeLegal           DocumentType = "legal"
	DocumentTypeMedical         DocumentType = "medical"
	DocumentTypeFinancial       DocumentType = "financial"
	DocumentTypeTechnical       DocumentType = "technical"
	DocumentTypeGeneral         DocumentType = "general_document"
)

// Description returns the sentence used when describing the document.
func (t DocumentType) Description() string {
	switch t {
	case DocumentTypeInsurancePolicy:
		return "This is an insurance policy document"
	case DocumentTypeContract:
		return "This is a contractual agreement document"
	case DocumentTypeManual:
		return "This is an instructional manual or guide"
	case DocumentTypeReport:
		return "This is a report or analysis document"
	case DocumentTypeLegal:
		return "This is a legal document"
	case DocumentTypeMedical:
		return "This is a medical document"
	case DocumentTypeFinancial:
		return "This is a financial document"
	case DocumentTypeTechnical:
		return "This is a technical specification document"
	case DocumentTypeGeneral:
		return "This is a general document"
	default:
		return "This is a document"
	}
}

// QuestionType is the category a question was classified into.
type QuestionType string

// Question types, in classification order.
const (
	QuestionWhatIs     QuestionType = "what_is"
	QuestionHowTo      QuestionType = "how_to"
	QuestionWhen       QuestionType = "when"
	QuestionWhere      QuestionType = "where"
	QuestionWhy        QuestionType = "why"
	QuestionWho        QuestionType = "who"
	QuestionList       QuestionType = "list"
	QuestionDefinition QuestionType = "definition"
	QuestionProcess    QuestionType = "process"
	QuestionRules      QuestionType = "rules"
	QuestionGeneral    QuestionType = "general"
)

// KeySection is a named section of a document.
type KeySection struct {
	// Name is the lower-cased section heading.
	Name string

	// Content is the section text, truncated.
	Content string
}

// DocumentStructure counts structural elements of a document.
type DocumentStructure struct {
	Sections   int
	Paragraphs int
	Sentences  int
	Words      int
}

// DocumentAnalysis describes a whole document.
type DocumentAnalysis struct {
	// DocumentType is the best-scoring type, or general_document.
	DocumentType DocumentType

	// MainTopics are heading-like lines and repeated capitalised phrases.
	MainTopics []string

	// KeySections are sections in document order.
	KeySections []KeySection

	// Summary is a short extract of the document.
	Summary string

	// KeyEntities are frequent capitalised names and abbreviations.
	KeyEntities []string

	// Length is the document length in bytes.
	Length int

	// Structure counts sections, paragraphs, sentences and words.
	Structure DocumentStructure
}
