// Package dynamodb contains DynamoDB resource descriptors.
package dynamodb

// AttributeTypeString is the string scalar type in AttributeDefinitions.
const AttributeTypeString = "S"

// Key types accepted in KeySchema.
const (
	KeyTypeHash  = "HASH"
	KeyTypeRange = "RANGE"
)

// Table is an AWS::DynamoDB::Table.
// Ref returns the table name; the Arn attribute returns the table ARN.
type Table struct {
	TableName             any                          `json:"TableName,omitempty"`
	AttributeDefinitions  []Table_AttributeDefinition  `json:"AttributeDefinitions,omitempty"`
	KeySchema             []Table_KeySchema            `json:"KeySchema,omitempty"`
	BillingMode           string                       `json:"BillingMode,omitempty"`
	ProvisionedThroughput *Table_ProvisionedThroughput `json:"ProvisionedThroughput,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Table) ResourceType() string { return "AWS::DynamoDB::Table" }

// Table_AttributeDefinition declares the type of a key attribute.
type Table_AttributeDefinition struct {
	AttributeName string `json:"AttributeName"`
	AttributeType string `json:"AttributeType"`
}

// Table_KeySchema names one element of the primary key.
type Table_KeySchema struct {
	AttributeName string `json:"AttributeName"`
	KeyType       string `json:"KeyType"`
}

// Table_ProvisionedThroughput sets read and write capacity units.
type Table_ProvisionedThroughput struct {
	ReadCapacityUnits  int `json:"ReadCapacityUnits"`
	WriteCapacityUnits int `json:"WriteCapacityUnits"`
}

// Key describes a primary key attribute by name and type.
type Key struct {
	Name string
	Type string
}

// WithKeys fills AttributeDefinitions and KeySchema from a partition key and an
// optional sort key.
func (t Table) WithKeys(partition Key, sort *Key) Table {
	t.AttributeDefinitions = []Table_AttributeDefinition{{AttributeName: partition.Name, AttributeType: partition.Type}}
	t.KeySchema = []Table_KeySchema{{AttributeName: partition.Name, KeyType: KeyTypeHash}}
	if sort != nil {
		t.AttributeDefinitions = append(t.AttributeDefinitions, Table_AttributeDefinition{AttributeName: sort.Name, AttributeType: sort.Type})
		t.KeySchema = append(t.KeySchema, Table_KeySchema{AttributeName: sort.Name, KeyType: KeyTypeRange})
	}
	return t
}
