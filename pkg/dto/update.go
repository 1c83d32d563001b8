package dto

type PostUpdateRequest struct {
	Body string `json:"body"`
}

type AddFileRequest struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	Mime     string `json:"mime"`
}
