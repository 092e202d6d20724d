package engine

// Reply texts sent by the bot. Free text collected from the user is never
// normalized or validated here; the operator reviews every order by hand.

const menuText = "Olá! 😊 Sou o atendimento automático.\n" +
	"Como posso ajudar?\n\n" +
	"1) Fazer uma encomenda 🎂\n" +
	"2) Ver opções/preços 💬\n" +
	"3) Falar com a confeiteira 👩‍🍳\n\n" +
	"Digite 1, 2 ou 3."

const cancelText = "Tudo bem! Pedido cancelado. Se precisar, é só chamar 😊"

const priceText = "Certo! 💬 Hoje trabalhamos com:\n" +
	"- Doces para festa (centena)\n" +
	"- Caixas presente\n" +
	"- Kits personalizados\n\n" +
	"Para fazer uma encomenda, digite 1."

const handoffText = "Perfeito! 👩‍🍳 Vou avisar a confeiteira.\n" +
	"Assim que possível ela te responde por aqui. 😊"

const promptDateText = "Perfeito! Para qual data é a encomenda? (ex: 15/02)"

const promptTypeText = "É para Festa 🎉 ou Presente 🎁? (responda: festa/presente)"

const promptQuantityText = "Quantas unidades (aprox.)? (ex: 50, 100, 200)"

const promptNotesText = "Tem alguma observação? (tema, sabores, alergias, entrega/retirada).\n" +
	"Se não, digite 'não'."

const confirmedText = "Perfeito! ✅ Seu pedido foi registrado.\n" +
	"A confeiteira vai te chamar para combinar os detalhes.\n\n" +
	"Se quiser fazer outro pedido, digite 1. 😊"

const declinedText = "Sem problemas! Vamos voltar ao menu. 😊\n\n" + menuText

// NonTextReply answers inbound media the bot cannot understand.
const NonTextReply = "Recebi seu arquivo/figura/áudio. No momento só entendo texto. 😊"
