package stack_test

import (
	"fmt"

	"github.com/lex00/goalstack-go/internal/naming"
	"github.com/lex00/goalstack-go/internal/template"
	"github.com/lex00/goalstack-go/resources/dynamodb"
	"github.com/lex00/goalstack-go/resources/lambda"
	"github.com/lex00/goalstack-go/stack"
)

func ExampleCatalog() {
	c := stack.NewCatalog(naming.New(1))

	table, err := c.AddTable("TGoals", dynamodb.Table{
		KeySchema: []dynamodb.Table_KeySchema{{AttributeName: "userId", KeyType: dynamodb.KeyTypeHash}},
	})
	if err != nil {
		panic(err)
	}

	// The zero role gives the function a service role of its own.
	fn, err := c.AddFunction("FunctionListGoals", lambda.Function{
		Runtime: "nodejs12.x",
		Handler: "index.handler",
		Code:    lambda.Function_Code{ZipFile: "exports.handler = async () => ({})"},
		Environment: &lambda.Function_Environment{
			Variables: map[string]any{"TABLE_NAME": table.Name()},
		},
	}, stack.RoleHandle{})
	if err != nil {
		panic(err)
	}
	if err := c.GrantReadWriteData(table, fn); err != nil {
		panic(err)
	}

	tmpl, err := c.Template()
	if err != nil {
		panic(err)
	}
	order, err := template.Order(tmpl)
	if err != nil {
		panic(err)
	}
	for _, id := range order {
		fmt.Println(id, tmpl.Resources[id].Type)
	}
	// Output:
	// FunctionListGoalsServiceRole AWS::IAM::Role
	// TGoals AWS::DynamoDB::Table
	// FunctionListGoalsServiceRoleDefaultPolicy AWS::IAM::Policy
	// FunctionListGoals AWS::Lambda::Function
}
