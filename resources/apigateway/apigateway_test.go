package apigateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goalstack "github.com/lex00/goalstack-go"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		name     string
		resource goalstack.Resource
		expected string
	}{
		{"RestApi", RestApi{}, "AWS::ApiGateway::RestApi"},
		{"Resource", Resource{}, "AWS::ApiGateway::Resource"},
		{"Method", Method{}, "AWS::ApiGateway::Method"},
		{"Authorizer", Authorizer{}, "AWS::ApiGateway::Authorizer"},
		{"Deployment", Deployment{}, "AWS::ApiGateway::Deployment"},
		{"Stage", Stage{}, "AWS::ApiGateway::Stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestMethodSerialization(t *testing.T) {
	method := Method{
		RestApiId:         "api-1",
		ResourceId:        "res-1",
		HttpMethod:        "OPTIONS",
		AuthorizationType: AuthorizationNone,
		Integration: &Method_Integration{
			Type_:               IntegrationMock,
			PassthroughBehavior: "NEVER",
			RequestTemplates:    map[string]string{"application/json": `{"statusCode": 200}`},
			IntegrationResponses: []Method_IntegrationResponse{{
				StatusCode:         "200",
				ResponseParameters: map[string]string{"method.response.header.Access-Control-Allow-Origin": "'*'"},
			}},
		},
		MethodResponses: []Method_MethodResponse{{
			StatusCode:         "200",
			ResponseParameters: map[string]bool{"method.response.header.Access-Control-Allow-Origin": true},
		}},
	}

	data, err := json.Marshal(method)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "MOCK", parsed["Integration"].(map[string]any)["Type"])
	assert.NotContains(t, parsed, "AuthorizerId")

	var back Method
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, method, back)
}
