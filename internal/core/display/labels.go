// Package display holds the pure presentation transforms applied to audit
// history at read time. Stored records always keep raw values; nothing here
// touches the write path.
package display

import "github.com/atvirokodosprendimai/crmapi/internal/core/domain"

var fieldLabels = map[string]map[string]string{
	domain.KindCompany: {
		"name":          "会社名",
		"nameKana":      "会社名（カナ）",
		"industryType":  "業種",
		"address":       "住所",
		"phoneNumber":   "電話番号",
		"url":           "URL",
		"employeeCount": "従業員数",
		"billingFlag":   "請求対象",
		"note":          "備考",
	},
	domain.KindContact: {
		"name":        "氏名",
		"nameKana":    "氏名（カナ）",
		"companyId":   "所属会社",
		"department":  "部署",
		"title":       "役職",
		"email":       "メールアドレス",
		"phoneNumber": "電話番号",
		"note":        "備考",
	},
	domain.KindSalesOpportunity: {
		"name":              "案件名",
		"companyId":         "会社",
		"contactId":         "担当者",
		"amount":            "受注見込金額",
		"status":            "ステータス",
		"probability":       "受注確度",
		"expectedOrderDate": "受注予定日",
		"note":              "備考",
	},
	domain.KindProject: {
		"name":      "プロジェクト名",
		"companyId": "会社",
		"status":    "ステータス",
		"startDate": "開始日",
		"endDate":   "終了日",
		"budget":    "予算",
		"note":      "備考",
	},
	domain.KindEquipment: {
		"name":          "機材名",
		"modelNumber":   "型番",
		"serialNumber":  "シリアル番号",
		"purchaseDate":  "購入日",
		"purchasePrice": "購入価格",
		"location":      "保管場所",
		"note":          "備考",
	},
	domain.KindWorkRecord: {
		"projectId":   "プロジェクト",
		"contactId":   "作業者",
		"workDate":    "作業日",
		"hours":       "作業時間",
		"description": "作業内容",
	},
}

// Label resolves the display label for a field of an entity kind, falling
// back to the raw field name for unknown kinds and fields.
func Label(entityKind, field string) string {
	if labels, ok := fieldLabels[entityKind]; ok {
		if label, ok := labels[field]; ok {
			return label
		}
	}
	return field
}
