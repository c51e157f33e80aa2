// Package content is the typed gateway to the portfolio database. Each
// section has one accessor issuing a single relational query; child tables
// are folded into named arrays on the parent record via correlated json_agg
// subqueries. Rows come back snake_case and are canonicalized to camelCase
// exactly once, at the scan boundary, through the struct json tags here.
package content

// Tree is the merged in-memory representation of every portfolio section.
// After a clean full fetch all section pointers are non-nil; a section with
// no rows is an empty value, never an error.
type Tree struct {
	Home       *Home       `json:"home"`
	About      *About      `json:"about"`
	Education  *Education  `json:"education"`
	Experience *Experience `json:"experience"`
	Projects   *Projects   `json:"projects"`
	Awards     *Awards     `json:"awards"`
	Gallery    *Gallery    `json:"gallery"`
}

type Home struct {
	ID            string         `json:"id"`
	Greeting      string         `json:"greeting"`
	Name          string         `json:"name"`
	Title         string         `json:"title"`
	Introduction  string         `json:"introduction"`
	HeroImageURL  string         `json:"heroImageUrl"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	Location      string         `json:"location"`
	LinkedinURL   string         `json:"linkedinUrl"`
	GithubURL     string         `json:"githubUrl"`
	ResumeURL     string         `json:"resumeUrl"`
	Organizations []Organization `json:"organizations"`
	Qualities     []Quality      `json:"qualities"`
}

type Organization struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
	Link    string `json:"link"`
}

type Quality struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type About struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ProfileImageURL string   `json:"profileImageUrl"`
	Skills          []Skill  `json:"skills"`
	Interests       []string `json:"interests"`
}

type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type Education struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Items []EducationItem `json:"items"`
}

type EducationItem struct {
	ID                      string        `json:"id"`
	Name                    string        `json:"name"`
	Degree                  string        `json:"degree"`
	FieldOfStudy            string        `json:"fieldOfStudy"`
	CompletionDate          string        `json:"completionDate"`
	LogoURL                 string        `json:"logoUrl"`
	Description             string        `json:"description"`
	RelevantCourses         []string      `json:"relevantCourses"`
	OrganizationInvolvement []Involvement `json:"organizationInvolvement"`
}

type Involvement struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
}

type Experience struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	ProfessionalPositions []Position `json:"professionalPositions"`
	LeadershipPositions   []Position `json:"leadershipPositions"`
}

type Position struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	LogoURL          string   `json:"logoUrl"`
	Responsibilities []string `json:"responsibilities"`
}

type Projects struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Items []ProjectItem `json:"items"`
}

type ProjectItem struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"imageUrl"`
	Link         string   `json:"link"`
	RepoURL      string   `json:"repoUrl"`
	Technologies []string `json:"technologies"`
	Highlights   []string `json:"highlights"`
}

type Awards struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Items []AwardItem `json:"items"`
}

type AwardItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	AwardedOn    string `json:"awardedOn"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl"`
}

type Gallery struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Items []GalleryItem `json:"items"`
}

type GalleryItem struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
	Category string `json:"category"`
}

// SectionKeys lists every top-level section in serving order.
var SectionKeys = []string{"home", "about", "education", "experience", "projects", "awards", "gallery"}
