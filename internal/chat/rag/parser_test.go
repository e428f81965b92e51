package rag

import (
	"testing"

	"pcbuild_backend/internal/chat/domain"
)

func TestParse_StructuredJSON(t *testing.T) {
	raw := `{
		"title": "가성비 게이밍 PC",
		"description": "중급 게이밍용 구성입니다.",
		"components": [
			{"category": "cpu", "name": "Ryzen 5 5600X", "price": 180000, "description": "6코어"},
			{"category": "vga", "name": "RTX 4060", "price": 450000, "description": "1080p 게이밍"}
		],
		"notes": "쿨러는 기본 제공품 사용",
		"followUps": ["모니터도 필요하신가요?"]
	}`

	reply := Parse(raw)
	if reply.Kind != ReplyEstimate {
		t.Fatalf("expected estimate reply, got %s", reply.Kind)
	}
	estimate := reply.Estimate
	if estimate.Title != "가성비 게이밍 PC" {
		t.Fatalf("unexpected title %q", estimate.Title)
	}
	if len(estimate.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(estimate.Components))
	}
	if estimate.Components[0].Category != domain.CategoryCPU || estimate.Components[0].Price != 180000 {
		t.Fatalf("unexpected first component %+v", estimate.Components[0])
	}
	if estimate.TotalPrice != 630000 {
		t.Fatalf("expected computed total 630000, got %d", estimate.TotalPrice)
	}
	if len(estimate.FollowUps) != 1 {
		t.Fatalf("expected follow-up question, got %v", estimate.FollowUps)
	}
}

func TestParse_CodeFencedJSONWithAliases(t *testing.T) {
	raw := "```json\n" + `{
		"title": "사무용 PC",
		"products": [
			{"type": "씨피유", "model": "Ryzen 3 4100", "cost": "120,000원", "reason": "사무용으로 충분"}
		],
		"total_price": 120000
	}` + "\n```"

	reply := Parse(raw)
	if reply.Kind != ReplyEstimate {
		t.Fatalf("expected estimate reply, got %s", reply.Kind)
	}
	component := reply.Estimate.Components[0]
	if component.Category != domain.CategoryCPU {
		t.Fatalf("alias category must normalize to cpu, got %s", component.Category)
	}
	if component.ProposedName != "Ryzen 3 4100" {
		t.Fatalf("model alias must populate the name, got %q", component.ProposedName)
	}
	if component.Price != 120000 {
		t.Fatalf("cost alias with formatting must coerce, got %d", component.Price)
	}
	if component.Description != "사무용으로 충분" {
		t.Fatalf("reason alias must populate description, got %q", component.Description)
	}
}

func TestParse_JSONWrappedInProse(t *testing.T) {
	raw := `요청하신 견적입니다.
{"components": [{"category": "ram", "name": "DDR4 16GB", "price": 60000}]}
추가 질문이 있으면 말씀해주세요.`

	reply := Parse(raw)
	if reply.Kind != ReplyEstimate {
		t.Fatalf("expected estimate reply, got %s", reply.Kind)
	}
	if reply.Estimate.Components[0].Category != domain.CategoryRAM {
		t.Fatalf("unexpected component %+v", reply.Estimate.Components[0])
	}
}

func TestParse_FreeformNumberedList(t *testing.T) {
	raw := `추천 구성입니다.

1. **CPU**: **AMD Ryzen 5 5600X**
   - 가격: 180,000원
   - 설명: 게이밍에 적합한 6코어 프로세서

2. **그래픽카드** - RTX 4060
   - 가격: 450,000원
   - 설명: 1080p 고사양 게이밍용

총 견적: 630,000원

더 필요한 것이 있으면 말씀해주세요.`

	reply := Parse(raw)
	if reply.Kind != ReplyEstimate {
		t.Fatalf("expected estimate reply, got %s", reply.Kind)
	}
	estimate := reply.Estimate
	if len(estimate.Components) != 2 {
		t.Fatalf("expected 2 components, got %+v", estimate.Components)
	}
	if estimate.Components[0].Category != domain.CategoryCPU || estimate.Components[0].Price != 180000 {
		t.Fatalf("unexpected cpu component %+v", estimate.Components[0])
	}
	if estimate.Components[1].Category != domain.CategoryVGA {
		t.Fatalf("그래픽카드 header must normalize to vga, got %s", estimate.Components[1].Category)
	}
	if estimate.Components[1].Name != "RTX 4060" {
		t.Fatalf("unexpected vga name %q", estimate.Components[1].Name)
	}
	if estimate.TotalPrice != 630000 {
		t.Fatalf("expected explicit total 630000, got %d", estimate.TotalPrice)
	}
}

func TestParse_FreeformWithoutTotalComputesSum(t *testing.T) {
	raw := `1. **SSD**: Samsung 980 1TB
   - 가격: 95,000원
2. **파워**: FSP 600W
   - price: 65000`

	reply := Parse(raw)
	if reply.Kind != ReplyEstimate {
		t.Fatalf("expected estimate reply, got %s", reply.Kind)
	}
	if reply.Estimate.TotalPrice != 160000 {
		t.Fatalf("expected summed total 160000, got %d", reply.Estimate.TotalPrice)
	}
}

func TestParse_ConversationalFallback(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"plain chat", "안녕하세요! 어떤 용도의 컴퓨터를 찾으시나요?"},
		{"broken json", `{"components": [{"category": "cpu",`},
		{"json without components", `{"title": "질문", "description": "예산이 어떻게 되시나요?"}`},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := Parse(tc.raw)
			if reply.Kind != ReplyConversation {
				t.Fatalf("expected conversational reply, got %s", reply.Kind)
			}
			if reply.Message != tc.raw {
				t.Fatalf("conversational reply must carry the raw text, got %q", reply.Message)
			}
		})
	}
}

func TestParse_UntrustedTotalIgnoredWhenZero(t *testing.T) {
	raw := `{"components": [{"category": "cpu", "name": "Ryzen 5 5600X", "price": 180000}], "total": 0}`

	reply := Parse(raw)
	if reply.Estimate.TotalPrice != 180000 {
		t.Fatalf("zero total must be recomputed from components, got %d", reply.Estimate.TotalPrice)
	}
}
