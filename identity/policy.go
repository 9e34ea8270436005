package identity

import (
	"encoding/json"
	"fmt"
)

// The two read-only actions the reader role is granted, and nothing else.
const (
	ActionGetSecretValue = "secretsmanager:GetSecretValue"
	ActionDescribeSecret = "secretsmanager:DescribeSecret"
)

// PolicyDocument is the AWS policy grammar subset this tool emits.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is a single allow statement.
type Statement struct {
	Sid       string     `json:"Sid,omitempty"`
	Effect    string     `json:"Effect"`
	Principal *Principal `json:"Principal,omitempty"`
	Action    []string   `json:"Action"`
	Resource  []string   `json:"Resource,omitempty"`
}

// Principal names the service allowed to assume a role.
type Principal struct {
	Service string `json:"Service"`
}

// AssumeRoleDocument returns the trust policy letting only EC2 assume the
// reader role.
func AssumeRoleDocument() (string, error) {
	doc := PolicyDocument{
		Version: "2012-10-17",
		Statement: []Statement{{
			Sid:       "AllowEC2Assume",
			Effect:    "Allow",
			Principal: &Principal{Service: "ec2.amazonaws.com"},
			Action:    []string{"sts:AssumeRole"},
		}},
	}
	return marshalDocument(doc)
}

// ReadSecretDocument returns the permission grant: the two read actions
// against exactly the given container ARN. A wildcard resource is refused
// here so least privilege cannot erode by misconfiguration.
func ReadSecretDocument(secretARN string) (string, error) {
	if secretARN == "" || secretARN == "*" {
		return "", fmt.Errorf("permission grant requires the exact secret ARN, got %q", secretARN)
	}
	doc := PolicyDocument{
		Version: "2012-10-17",
		Statement: []Statement{{
			Sid:      "ReadDeployKey",
			Effect:   "Allow",
			Action:   []string{ActionGetSecretValue, ActionDescribeSecret},
			Resource: []string{secretARN},
		}},
	}
	return marshalDocument(doc)
}

func marshalDocument(doc PolicyDocument) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal policy document: %w", err)
	}
	return string(raw), nil
}
