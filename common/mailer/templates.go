package mailer

import (
	"bytes"
	"strings"
	"text/template"
)

// InquiryConfirmation holds what the confirmation mail of an inquiry needs.
type InquiryConfirmation struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	ChildFirstName string `json:"childFirstName,omitempty"`
	ChildLinked    bool   `json:"childLinked"`
}

// IsAdoption reports whether the adoption procedure template applies.
func (i InquiryConfirmation) IsAdoption() bool {
	return i.ChildLinked || strings.Contains(strings.ToLower(i.Subject), "adoption")
}

const adoptionProcedure = `Thank you for your interest in adoption! We are thrilled you are considering providing a loving home for one of our children.
Here is a general overview of our adoption process:
1.  **Initial Inquiry:** Submit the contact form expressing your interest.
2.  **Information Session:** We will invite you to an information session (online or in-person) to learn more about adoption through our organization and the needs of our children.
3.  **Application:** Complete and submit a formal adoption application form, including background checks and references.
4.  **Home Study:** A licensed social worker will conduct a home study, which involves interviews and home visits to assess your suitability and readiness for adoption.
5.  **Matching:** If approved, we will work with you to identify a potential match based on your preferences and the child's needs.
6.  **Pre-Placement Visits:** You will have opportunities to meet and interact with the child before placement.
7.  **Placement:** Once all parties agree, the child is placed in your home.
8.  **Post-Placement Supervision:** A social worker will provide support and supervision for a period after placement (typically 6 months).
9.  **Legal Finalization:** After the supervisory period, the adoption can be legally finalized in court.
**Please note:** This is a general outline. Specific requirements and timelines may vary. We prioritize the well-being and best interests of the child throughout the process.
We will review your inquiry and a member of our adoption team will contact you shortly to discuss the next steps.
Sincerely,
The Adoption Team
Orphanage Management System
`

var (
	defaultTemplate = template.Must(template.New("default").Parse(`Dear {{.Name}},

Thank you for contacting the Orphanage Management System.

We have received your message:
"{{.Message}}"

A team member will review your inquiry and respond as soon as possible.


Thank you,
Orphanage Management System`))

	adoptionTemplate = template.Must(template.New("adoption").Parse(`Dear {{.Name}},

Thank you for your adoption inquiry{{if .ChildFirstName}} regarding {{.ChildFirstName}}{{end}}!

We have received your message:
"{{.Message}}"

` + adoptionProcedure + `
Thank you,
Orphanage Management System`))
)

// Render builds the confirmation mail sent back to the inquirer.
func (i InquiryConfirmation) Render() (Mail, error) {
	tmpl := defaultTemplate
	if i.IsAdoption() {
		tmpl = adoptionTemplate
	}

	body := &bytes.Buffer{}
	if err := tmpl.Execute(body, i); err != nil {
		return Mail{}, err
	}
	return Mail{
		To:      i.Email,
		Subject: "Regarding Your Inquiry: " + i.Subject,
		Body:    body.String(),
	}, nil
}
