package extractor

import (
	"github.com/PuerkitoBio/goquery"

	"jobdex/pkg/models"
)

// positionalExtractor handles the template version where the detail groups
// occupy fixed positions among the content container's div tags:
//
//	div  1: full posting text
//	div -4: seniority level
//	div -3: industries
//	div -2: employment type
//	div -1: job functions
type positionalExtractor struct{}

func (e *positionalExtractor) Template() string {
	return TemplatePositional
}

func (e *positionalExtractor) Extract(doc *goquery.Document) (*models.JobRecord, error) {
	id, url, err := identityAnchor(doc)
	if err != nil {
		return nil, err
	}

	article, err := contentContainer(doc)
	if err != nil {
		return nil, err
	}

	divs := article.Find("div")
	n := divs.Length()
	if n < 5 {
		return nil, &ExtractionError{Reason: "detail groups not found"}
	}

	title, company, location, err := titleBlock(doc)
	if err != nil {
		return nil, err
	}

	return &models.JobRecord{
		ID:             id,
		URL:            url,
		Title:          title,
		Company:        company,
		Location:       location,
		Seniority:      optionalField(CleanLines(divs.Eq(n - 4).Text())),
		EmploymentType: optionalField(CleanLines(divs.Eq(n - 2).Text())),
		Industries:     multiField(CleanLines(divs.Eq(n - 3).Text())),
		Functions:      multiField(CleanLines(divs.Eq(n - 1).Text())),
		PostingText:    JoinLines(CleanLines(divs.Eq(1).Text())),
	}, nil
}
