package portfolio

import "github.com/starford/folio/internal/models"

// Seed returns the sample document a fresh server starts with.
func Seed() *models.Portfolio {
	return &models.Portfolio{
		PersonalInfo: models.PersonalInfo{
			Name:           "Rajesh Kumar",
			JobTitle:       "Senior Analyst at Capgemini",
			ProfilePicture: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=400&h=400&fit=crop",
			CoverPhoto:     "https://images.unsplash.com/photo-1497366216548-37526070297c?w=1920&h=600&fit=crop",
			AboutMe: "Results-driven Senior Analyst with 5+ years of experience in business analysis, " +
				"data analytics, and project management. Specialized in delivering data-driven insights " +
				"and strategic solutions for Fortune 500 clients.",
			Email:    "rajesh.kumar@email.com",
			Phone:    "+91 98765 43210",
			Location: "Mumbai, India",
		},
		Experience: []models.Experience{
			{
				ID:          "1",
				Company:     "Capgemini",
				Position:    "Senior Analyst",
				StartDate:   "Jan 2021",
				EndDate:     "Present",
				IsCurrent:   true,
				Description: "Leading business analysis initiatives for global clients.",
				Responsibilities: []string{
					"Lead cross-functional teams in analyzing business requirements",
					"Develop data-driven insights using SQL, Python, and Tableau",
					"Manage stakeholder communications and project deliverables",
				},
			},
			{
				ID:          "2",
				Company:     "Accenture",
				Position:    "Business Analyst",
				StartDate:   "Jun 2019",
				EndDate:     "Dec 2020",
				Description: "Performed business analysis and process optimization for financial services clients.",
				Responsibilities: []string{
					"Conducted gap analysis and process mapping",
					"Created business requirement documents (BRD)",
				},
			},
		},
		Certifications: []models.Certification{
			{ID: "1", Name: "Certified Business Analysis Professional (CBAP)", IssuingOrg: "IIBA", IssueDate: "March 2022", CredentialID: "CBAP-2022-45678"},
			{ID: "2", Name: "Microsoft Certified: Azure Data Fundamentals", IssuingOrg: "Microsoft", IssueDate: "September 2021", CredentialID: "AZ-900-123456"},
			{ID: "3", Name: "Agile Certified Practitioner (PMI-ACP)", IssuingOrg: "PMI", IssueDate: "January 2021", CredentialID: "PMI-ACP-789012"},
		},
		Skills: []models.Skill{
			{ID: "1", Name: "Business Analysis", Level: 90},
			{ID: "2", Name: "Data Analytics", Level: 85},
			{ID: "3", Name: "SQL & Database Management", Level: 80},
			{ID: "4", Name: "Python", Level: 75},
			{ID: "5", Name: "Tableau & Power BI", Level: 85},
			{ID: "6", Name: "Project Management", Level: 80},
		},
		SocialLinks: models.SocialLinks{
			LinkedIn:  "https://linkedin.com/in/rajeshkumar",
			Instagram: "https://instagram.com/rajeshkumar",
			Facebook:  "https://facebook.com/rajeshkumar",
			Twitter:   "https://twitter.com/rajeshkumar",
		},
		Documents: &models.Documents{},
	}
}
