package zarinpal

import "fmt"

// Gateway status codes. The set is closed and externally defined: 100 is
// success, 101 means the transaction was verified before, the rest are
// rejection reasons.
const (
	CodeSuccess         = 100
	CodeAlreadyVerified = 101
)

var statusMessages = map[int]string{
	100: "پرداخت با موفقیت انجام شد",
	101: "تراکنش قبلا تایید شده است",
	102: "پذیرنده نامعتبر است",
	103: "پذیرنده غیرفعال است",
	104: "اطلاعات ارسالی نامعتبر است",
	105: "مبلغ کمتر از حداقل مجاز است",
	106: "آدرس بازگشت نامعتبر است",
	110: "تراکنش ناموفق بود",
	111: "خطا در پردازش درخواست پرداخت",
	112: "تراکنش توسط پرداخت‌کننده لغو شد",
	113: "مهلت پرداخت به پایان رسیده است",
	201: "مبلغ تراکنش با مبلغ پرداخت‌شده مطابقت ندارد",
	202: "تراکنش ناموفق است یا یافت نشد",
	203: "کد مرجع تراکنش نامعتبر است",
}

// StatusMessage maps a gateway code to its localized message; unknown codes
// fall back to a generic message embedding the code.
func StatusMessage(code int) string {
	msg, ok := statusMessages[code]
	if !ok {
		return fmt.Sprintf("خطای ناشناخته درگاه پرداخت (کد %d)", code)
	}
	return msg
}

// IsVerified reports whether a verify/callback response code finalizes the
// payment: 100 on first verification, 101 on an idempotent replay.
func IsVerified(code int) bool {
	return code == CodeSuccess || code == CodeAlreadyVerified
}
