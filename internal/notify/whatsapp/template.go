package whatsapp

import "fmt"

// CodeDeliveryMessage is the message a buyer receives after their
// payment is approved and a code has been allocated.
func CodeDeliveryMessage(name, code, plan string) string {
	return fmt.Sprintf(`🎉 *Olá %s!*

✅ *Seu pagamento foi aprovado!*

🔑 *Seu código UniTV:*
`+"`%s`"+`

📦 *Plano:* %s

📱 *Como usar:*
1. Abra o app UniTV
2. Vá em "Perfil"
3. Clique em "Centro de Resgate"
4. Digite seu código
5. Pronto! Aproveite!

💬 *Precisa de ajuda?*
É só responder essa mensagem!

*Obrigado por escolher a UniTV!* 🚀`, name, code, plan)
}

// PaymentReceivedMessage acknowledges a confirmed payment while the
// code is being allocated.
func PaymentReceivedMessage(name, amount, plan, when string) string {
	return fmt.Sprintf(`💰 *Pagamento confirmado!*

👤 *Cliente:* %s
💵 *Valor:* R$ %s
📦 *Plano:* %s
⏰ *Data:* %s

✅ *Processando seu código...*
Em instantes você receberá seu código de ativação!

*Obrigado pela confiança!* 🙏`, name, amount, plan, when)
}
