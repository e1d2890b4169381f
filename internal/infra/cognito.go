package infra

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
}

type CognitoIdentityProvider struct {
	client       cognitoAPI
	clientID     string
	clientSecret string
}

func NewCognitoIdentityProvider(cfg aws.Config, clientID, clientSecret string) ports.IdentityProvider {
	return &CognitoIdentityProvider{
		client:       cip.NewFromConfig(cfg),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (c *CognitoIdentityProvider) Login(ctx context.Context, username, password string) (*ports.AuthTokens, error) {
	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if c.clientSecret != "" {
		params["SECRET_HASH"] = c.secretHash(username)
	}

	out, err := c.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, fmt.Errorf("cognito initiate auth: %w", err)
	}
	if out.AuthenticationResult == nil {
		return nil, fmt.Errorf("cognito challenge %q not supported", out.ChallengeName)
	}

	res := out.AuthenticationResult
	return &ports.AuthTokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
	}, nil
}

func (c *CognitoIdentityProvider) SignUp(ctx context.Context, username, password, email string) (string, error) {
	in := &cip.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(username),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	}
	if c.clientSecret != "" {
		in.SecretHash = aws.String(c.secretHash(username))
	}

	out, err := c.client.SignUp(ctx, in)
	if err != nil {
		return "", fmt.Errorf("cognito sign up: %w", err)
	}
	return aws.ToString(out.UserSub), nil
}

// secretHash is required by app clients created with a secret.
func (c *CognitoIdentityProvider) secretHash(username string) string {
	h := hmac.New(sha256.New, []byte(c.clientSecret))
	h.Write([]byte(username + c.clientID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
