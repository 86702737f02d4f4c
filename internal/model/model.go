package model

// Account is the subset of an account this service reads and appends to.
// Credentials are managed elsewhere.
type Account struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	Role          string         `json:"role"`
	DIDAddress    string         `json:"did_address"`
	DIDPrivateKey []byte         `json:"-"`
	Documents     []string       `json:"documents"`
	ShareRequests []ShareRequest `json:"share_requests"`
}

// ShareRequest records that RequestingAccountID asked for documents of DocumentTypeID.
type ShareRequest struct {
	RequestingAccountID string `json:"requesting_account_id" bson:"requestingAccountId"`
	DocumentTypeID      string `json:"document_type_id" bson:"documentTypeId"`
}

// DocumentType describes the metadata a document of this type carries.
type DocumentType struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Fields []DocumentField `json:"fields"`
}

type DocumentField struct {
	FieldName string `json:"field_name"`
	Required  bool   `json:"required"`
}
