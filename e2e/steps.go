package e2e

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps binds the purchase flow step definitions to a scenario.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	s := &purchaseSteps{tc: tc}

	ctx.Step(`^I am agent "([^"]*)"$`, s.actAs)
	ctx.Step(`^I am not authenticated$`, s.actAnonymously)

	ctx.Step(`^I request to buy "([^"]*)" from "([^"]*)" for (\d+)$`, s.requestPurchase)
	ctx.Step(`^the oracle (approves|rejects) the request with reference price (\d+)$`, s.fulfill)
	ctx.Step(`^I submit a review with quality (\d) delivery (\d) value (\d)$`, s.submitReview)
	ctx.Step(`^I fetch the request$`, s.fetchRequest)
	ctx.Step(`^I ask for a decision on "([^"]*)" from "([^"]*)" at (\d+)$`, s.evaluateDecision)

	ctx.Step(`^the response status should be (\d+)$`, s.assertStatus)
	ctx.Step(`^the response should contain "([^"]*)"$`, s.assertHasField)
	ctx.Step(`^the error code should be "([^"]*)"$`, s.assertErrorCode)
	ctx.Step(`^the field "([^"]*)" should be "([^"]*)"$`, s.assertFieldEquals)
	ctx.Step(`^the verdict should be one of "([^"]*)"$`, s.assertVerdictIn)
}

type purchaseSteps struct {
	tc *TestContext
}

func (s *purchaseSteps) actAs(agentID string) error {
	s.tc.ActAs(agentID)
	return nil
}

func (s *purchaseSteps) actAnonymously() error {
	s.tc.ActAs("")
	return nil
}

func (s *purchaseSteps) requestPurchase(itemID, sellerID string, price int) error {
	err := s.tc.Do("POST", "/purchase/request", map[string]any{
		"item_id":        itemID,
		"proposed_price": price,
		"seller_id":      sellerID,
	})
	if err != nil {
		return err
	}
	if id, fieldErr := s.tc.ResponseField("request_id"); fieldErr == nil {
		if str, ok := id.(string); ok {
			s.tc.Capture("request_id", str)
		}
	}
	return nil
}

func (s *purchaseSteps) fulfill(verb string, referencePrice int) error {
	requestID, err := s.tc.Captured("request_id")
	if err != nil {
		return err
	}
	return s.tc.Do("POST", "/purchase/"+requestID+"/fulfill", map[string]any{
		"approved":        verb == "approves",
		"reference_price": referencePrice,
	})
}

func (s *purchaseSteps) submitReview(quality, delivery, value int) error {
	requestID, err := s.tc.Captured("request_id")
	if err != nil {
		return err
	}
	return s.tc.Do("POST", "/purchase/"+requestID+"/review", map[string]any{
		"quality":  quality,
		"delivery": delivery,
		"value":    value,
	})
}

func (s *purchaseSteps) fetchRequest() error {
	requestID, err := s.tc.Captured("request_id")
	if err != nil {
		return err
	}
	return s.tc.Do("GET", "/purchase/"+requestID, nil)
}

func (s *purchaseSteps) evaluateDecision(itemID, sellerID string, price int) error {
	return s.tc.Do("POST", "/decision/evaluate", map[string]any{
		"item_id":        itemID,
		"proposed_price": price,
		"seller_id":      sellerID,
	})
}

func (s *purchaseSteps) assertStatus(expected int) error {
	return s.tc.AssertStatus(expected)
}

func (s *purchaseSteps) assertHasField(field string) error {
	_, err := s.tc.ResponseField(field)
	return err
}

func (s *purchaseSteps) assertErrorCode(expected string) error {
	return s.assertFieldEquals("error", expected)
}

func (s *purchaseSteps) assertFieldEquals(field, expected string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", v) != expected {
		return fmt.Errorf("field %q is %v, want %s", field, v, expected)
	}
	return nil
}

func (s *purchaseSteps) assertVerdictIn(allowed string) error {
	v, err := s.tc.ResponseField("verdict")
	if err != nil {
		return err
	}
	verdict := fmt.Sprintf("%v", v)
	for _, candidate := range strings.Split(allowed, ",") {
		if verdict == strings.TrimSpace(candidate) {
			return nil
		}
	}
	return fmt.Errorf("verdict %s not in %s", verdict, allowed)
}
