package extractor

import (
	"github.com/PuerkitoBio/goquery"

	"jobdex/pkg/models"
)

// Detail group labels observed across template versions. "Industry" and
// "Industries" both occur in the wild.
const (
	labelSeniority      = "Seniority Level"
	labelIndustry       = "Industry"
	labelIndustries     = "Industries"
	labelEmploymentType = "Employment Type"
	labelFunctions      = "Job Functions"
)

// labeledExtractor handles the template version where each detail group is
// a self-contained block whose first text line is its label. Groups are
// matched by label regardless of position, so a reordered page still
// extracts; an absent group yields a null or empty field instead of failing.
// With requireLabels set, a document carrying no labeled groups at all is
// rejected so a fallback strategy can take over.
type labeledExtractor struct {
	requireLabels bool
}

func (e *labeledExtractor) Template() string {
	return TemplateLabeled
}

func (e *labeledExtractor) Extract(doc *goquery.Document) (*models.JobRecord, error) {
	id, url, err := identityAnchor(doc)
	if err != nil {
		return nil, err
	}

	article, err := contentContainer(doc)
	if err != nil {
		return nil, err
	}

	title, company, location, err := titleBlock(doc)
	if err != nil {
		return nil, err
	}

	record := &models.JobRecord{
		ID:         id,
		URL:        url,
		Title:      title,
		Company:    company,
		Location:   location,
		Industries: []string{},
		Functions:  []string{},
	}

	matched := 0
	article.ChildrenFiltered("div").Each(func(i int, s *goquery.Selection) {
		lines := CleanLines(s.Text())
		if len(lines) == 0 {
			return
		}

		switch lines[0] {
		case labelSeniority:
			if record.Seniority == nil {
				record.Seniority = optionalField(lines)
			}
			matched++
		case labelIndustry, labelIndustries:
			if len(record.Industries) == 0 {
				record.Industries = multiField(lines)
			}
			matched++
		case labelEmploymentType:
			if record.EmploymentType == nil {
				record.EmploymentType = optionalField(lines)
			}
			matched++
		case labelFunctions:
			if len(record.Functions) == 0 {
				record.Functions = multiField(lines)
			}
			matched++
		default:
			// The longest unlabeled block is the posting text. Pages that
			// carry extra unlabeled blocks (section headings, footers)
			// would otherwise shadow the body.
			if text := JoinLines(lines); len(text) > len(record.PostingText) {
				record.PostingText = text
			}
		}
	})

	if e.requireLabels && matched == 0 {
		return nil, &ExtractionError{Reason: "no labeled detail groups found"}
	}

	return record, nil
}
